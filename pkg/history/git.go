package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/panbanda/trendline/internal/ctxlog"
	"github.com/panbanda/trendline/internal/remote"
	"github.com/panbanda/trendline/internal/vcs"
	"github.com/panbanda/trendline/pkg/models"
)

// GitOptions configures a git history.
type GitOptions struct {
	Job string
	// ResultFile is the path of the build record inside each commit.
	ResultFile string
	// Ref is the branch, tag or commit to start at. Empty means HEAD.
	Ref string
}

// Git is a history stored as a build record committed to a repository. Every
// commit reachable from the start ref is one candidate run; consecutive
// commits carrying the same build number count once.
type Git struct {
	job        string
	repo       vcs.Repository
	from       plumbing.Hash
	resultFile string
	log        *slog.Logger
}

// OpenGit opens the repository containing path. A path naming a remote
// repository (a git URL or owner/repo, optionally with @ref) is cloned into
// memory first.
func OpenGit(ctx context.Context, path string, opts GitOptions) (*Git, error) {
	if src, _ := remote.Parse(path); src != nil {
		ctxlog.FromContext(ctx).Info("cloning remote history", "url", src.URL)
		repo, err := src.Clone(ctx, nil)
		if err != nil {
			return nil, err
		}
		if opts.Ref == "" {
			opts.Ref = src.Ref
		}
		return newGit(ctx, repo, src.URL, opts)
	}

	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", path, err)
	}
	return newGit(ctx, repo, path, opts)
}

func newGit(ctx context.Context, repo vcs.Repository, path string, opts GitOptions) (*Git, error) {
	var from plumbing.Hash
	if opts.Ref != "" {
		var err error
		from, err = resolveRef(repo, opts.Ref)
		if err != nil {
			return nil, err
		}
	} else {
		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrNoHistory, err)
		}
		from = head.Hash()
	}

	resultFile := opts.ResultFile
	if resultFile == "" {
		resultFile = DefaultResultFile
	}
	g := &Git{
		job:        opts.Job,
		repo:       repo,
		from:       from,
		resultFile: resultFile,
		log:        ctxlog.FromContext(ctx).With("job", opts.Job),
	}
	latest, ok := g.Latest()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHistory)
	}
	g.log.Debug("opened git history", "from", from.String(), "latest", latest.DisplayName())
	return g, nil
}

// resolveRef resolves ref, falling back to the origin remote's branch of
// that name, which is all a fresh clone has for non-default branches.
func resolveRef(repo vcs.Repository, ref string) (plumbing.Hash, error) {
	hash, err := repo.ResolveRevision(ref)
	if err == nil {
		return hash, nil
	}
	if h, rerr := repo.ResolveRevision("origin/" + ref); rerr == nil {
		return h, nil
	}
	return plumbing.ZeroHash, err
}

func (g *Git) Job() string {
	return g.job
}

func (g *Git) Runs() models.RunIterator {
	commits, err := g.repo.Log(&vcs.LogOptions{From: g.from})
	if err != nil {
		g.log.Debug("reading commit log failed", "error", err)
		return models.NewSliceIterator()
	}
	return &gitIterator{history: g, commits: commits}
}

func (g *Git) Latest() (models.Run, bool) {
	it := g.Runs()
	run, ok := it.Next()
	if gi, isGit := it.(*gitIterator); isGit {
		gi.close()
	}
	return run, ok
}

type gitIterator struct {
	history *Git
	commits vcs.CommitIterator
	last    int
	done    bool
}

func (it *gitIterator) Next() (models.Run, bool) {
	for !it.done {
		commit, err := it.commits.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				it.history.log.Debug("walking commits failed", "error", err)
			}
			it.close()
			return nil, false
		}

		data, err := commit.File(it.history.resultFile)
		if err != nil {
			it.history.log.Debug("history ends at commit without build record", "commit", commit.Hash().String(), "error", err)
			it.close()
			return nil, false
		}
		result, err := DecodeRecord(data)
		if err != nil {
			it.history.log.Debug("history ends at invalid build record", "commit", commit.Hash().String(), "error", err)
			it.close()
			return nil, false
		}
		if result.BuildNumber == it.last {
			continue
		}
		it.last = result.BuildNumber
		if result.Job == "" {
			result.Job = it.history.job
		}
		return result, true
	}
	return nil, false
}

func (it *gitIterator) close() {
	if !it.done {
		it.done = true
		it.commits.Close()
	}
}
