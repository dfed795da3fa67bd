// Package progress reports history loading on stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar counting opened histories.
type Tracker struct {
	bar   *progressbar.ProgressBar
	w     io.Writer
	label string
	count atomic.Int64
}

// NewTracker creates a progress bar on stderr with the given label and
// total count.
func NewTracker(label string, total int) *Tracker {
	return newTracker(os.Stderr, label, total, true)
}

// NewQuiet creates a tracker that counts without drawing anything.
func NewQuiet(label string, total int) *Tracker {
	return newTracker(io.Discard, label, total, false)
}

func newTracker(w io.Writer, label string, total int, visible bool) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, w: w, label: label}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.count.Add(1)
	t.bar.Add(1)
}

// Count returns the number of ticks so far.
func (t *Tracker) Count() int {
	return int(t.count.Load())
}

// Finish clears the bar.
func (t *Tracker) Finish() {
	t.bar.Finish()
	t.bar.Clear()
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	t.Finish()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}
