// Package remote resolves job histories that live in remote git repositories.
package remote

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/panbanda/trendline/internal/vcs"
)

// Source is a remote repository holding a git history.
type Source struct {
	URL string // normalized git URL
	Ref string // branch, tag, or SHA (empty = default branch)
}

var urlPrefixes = []string{"https://", "http://", "ssh://", "git://", "git@"}

// Parse detects if a path is a remote reference: a git URL or GitHub
// shorthand owner/repo, either optionally followed by @ref. Returns nil if
// path exists on the filesystem.
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	ref := ""
	if idx := strings.LastIndex(path, "@"); idx != -1 && idx > strings.LastIndex(path, "/") {
		ref = path[idx+1:]
		path = path[:idx]
	}

	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(path, prefix) {
			return &Source{URL: path, Ref: ref}, nil
		}
	}

	if isGitHubShorthand(path) {
		return &Source{
			URL: "https://github.com/" + path,
			Ref: ref,
		}, nil
	}

	return nil, nil
}

// IsRemote reports whether path names a remote repository.
func IsRemote(path string) bool {
	src, _ := Parse(path)
	return src != nil
}

// Clone fetches the repository into memory.
func (s *Source) Clone(ctx context.Context, progress io.Writer) (vcs.Repository, error) {
	return vcs.Clone(ctx, s.URL, progress)
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// a dot before the slash would be a domain
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}
