// Package vcs provides read access to git history.
package vcs

import (
	"errors"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// ErrFileNotFound is returned when a commit does not contain the requested file.
var ErrFileNotFound = errors.New("file not found in commit")

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// ResolveRevision resolves a branch, tag or hash to a commit hash.
	ResolveRevision(rev string) (plumbing.Hash, error)
	// Log returns a commit iterator, newest first.
	Log(opts *LogOptions) (CommitIterator, error)
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	Hash() plumbing.Hash
}

// LogOptions configures the commit log query.
type LogOptions struct {
	// From is the commit to start at. The zero hash means HEAD.
	From  plumbing.Hash
	Since *time.Time
}

// CommitIterator iterates over commits. Next returns io.EOF once the log is
// exhausted.
type CommitIterator interface {
	Next() (Commit, error)
	Close()
}

// Commit represents a git commit.
type Commit interface {
	Hash() plumbing.Hash
	// File returns the contents of path in the commit's tree.
	File(path string) ([]byte, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
