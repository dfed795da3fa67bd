// Package history provides newest-first run histories of analysis jobs.
//
// A history is read lazily: iterating it loads one record at a time, and an
// unreadable predecessor ends the history instead of failing it.
package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/panbanda/trendline/pkg/models"
)

var (
	// ErrNoHistory is returned when a job has no readable runs.
	ErrNoHistory = errors.New("no run history")
	// ErrUnknownSource is returned for an unsupported history source.
	ErrUnknownSource = errors.New("unknown history source")
)

// Source names a kind of history storage.
type Source string

const (
	// SourceDir reads <path>/builds/<number>/result.json records.
	SourceDir Source = "dir"
	// SourceGit reads a result file from every commit reachable from a ref.
	SourceGit Source = "git"
)

// DefaultResultFile is the result file looked up in git commits.
const DefaultResultFile = "analysis.json"

// History is the run history of one job.
type History interface {
	// Job returns the job name.
	Job() string
	// Runs starts a new walk from the newest run.
	Runs() models.RunIterator
	// Latest returns the newest run. It identifies the current state of
	// the history.
	Latest() (models.Run, bool)
}

// Spec describes where a job's history lives.
type Spec struct {
	Source     Source `yaml:"source" json:"source,omitempty"`
	Path       string `yaml:"path" json:"path"`
	Job        string `yaml:"job,omitempty" json:"job,omitempty"`
	ResultFile string `yaml:"result_file,omitempty" json:"result_file,omitempty"`
	Ref        string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// Name returns the job name, defaulting to the base name of the path.
func (s Spec) Name() string {
	if s.Job != "" {
		return s.Job
	}
	abs, err := filepath.Abs(s.Path)
	if err != nil {
		return filepath.Base(s.Path)
	}
	return filepath.Base(abs)
}

// Open opens the history described by spec. An empty source means SourceDir.
func Open(ctx context.Context, spec Spec) (History, error) {
	switch spec.Source {
	case SourceDir, "":
		return OpenDir(ctx, spec.Path, spec.Name())
	case SourceGit:
		return OpenGit(ctx, spec.Path, GitOptions{
			Job:        spec.Name(),
			ResultFile: spec.ResultFile,
			Ref:        spec.Ref,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, spec.Source)
	}
}

// Slice is an in-memory history.
type Slice struct {
	job  string
	runs []models.Run
}

// NewSlice creates a history from runs ordered newest first.
func NewSlice(job string, runs ...models.Run) *Slice {
	return &Slice{job: job, runs: runs}
}

func (s *Slice) Job() string {
	return s.job
}

func (s *Slice) Runs() models.RunIterator {
	return models.NewSliceIterator(s.runs...)
}

func (s *Slice) Latest() (models.Run, bool) {
	if len(s.runs) == 0 {
		return nil, false
	}
	return s.runs[0], true
}
