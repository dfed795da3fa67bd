package vcs

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Clone clones the repository at url into memory. Only the object database
// and refs are kept; there is no worktree.
func Clone(ctx context.Context, url string, progress io.Writer) (Repository, error) {
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:      url,
		Progress: progress,
		Tags:     git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}
	return &gitRepository{repo: repo}, nil
}
