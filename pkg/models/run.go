package models

import (
	"fmt"
	"time"
)

// Run is a single completed analysis execution of a job.
// Implementations are read-only once handed out by a history provider.
type Run interface {
	// Number returns the build number. Build numbers increase monotonically per job.
	Number() int
	// Timestamp returns when the build ran.
	Timestamp() time.Time
	// DisplayName returns the human-readable build label.
	DisplayName() string
}

// RunIterator walks a job history from the newest run to the oldest.
// Next returns false once the history is exhausted, including when a
// predecessor could not be loaded.
type RunIterator interface {
	Next() (Run, bool)
}

// Parameterized is implemented by runs that carry build parameters.
type Parameterized interface {
	Parameter(name string) (string, bool)
}

// BuildLabel formats a build number the way build columns are labeled.
func BuildLabel(number int) string {
	return fmt.Sprintf("#%d", number)
}

// AnalysisResult is the persisted result of one static-analysis build.
type AnalysisResult struct {
	Job         string            `json:"job,omitempty"`
	BuildNumber int               `json:"number"`
	TimeMillis  int64             `json:"timestamp"`
	High        int               `json:"high"`
	Normal      int               `json:"normal"`
	Low         int               `json:"low"`
	New         int               `json:"new"`
	Fixed       int               `json:"fixed"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// NewAnalysisResult creates a result for the given build and time.
func NewAnalysisResult(job string, number int, ts time.Time) *AnalysisResult {
	return &AnalysisResult{
		Job:         job,
		BuildNumber: number,
		TimeMillis:  ts.UnixMilli(),
	}
}

func (r *AnalysisResult) Number() int {
	return r.BuildNumber
}

func (r *AnalysisResult) Timestamp() time.Time {
	return time.UnixMilli(r.TimeMillis)
}

func (r *AnalysisResult) DisplayName() string {
	return BuildLabel(r.BuildNumber)
}

// Total returns the number of issues across all severities.
func (r *AnalysisResult) Total() int {
	return r.High + r.Normal + r.Low
}

// Parameter returns the value of a build parameter.
func (r *AnalysisResult) Parameter(name string) (string, bool) {
	v, ok := r.Parameters[name]
	return v, ok
}

func (r *AnalysisResult) String() string {
	return fmt.Sprintf("%s %s: %d issues", r.Job, r.DisplayName(), r.Total())
}

// SliceIterator iterates an in-memory, newest-first list of runs.
type SliceIterator struct {
	runs []Run
	pos  int
}

// NewSliceIterator returns an iterator over runs in the given order.
func NewSliceIterator(runs ...Run) *SliceIterator {
	return &SliceIterator{runs: runs}
}

func (it *SliceIterator) Next() (Run, bool) {
	if it.pos >= len(it.runs) {
		return nil, false
	}
	r := it.runs[it.pos]
	it.pos++
	return r, true
}
