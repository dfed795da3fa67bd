// Package watch reports new runs in job histories.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/trendline/internal/ctxlog"
	"github.com/panbanda/trendline/pkg/history"
)

// DefaultDebounce is how long a history must be quiet before the callback
// runs.
const DefaultDebounce = 500 * time.Millisecond

// Callback receives the paths that changed since the last call.
type Callback func(ctx context.Context, changed []string)

// Watcher monitors history storage and runs a callback once changes settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	callback  Callback

	mu       sync.Mutex
	pending  map[string]struct{}
	lastSeen time.Time
}

// NewWatcher creates a new watcher. A non-positive debounce means
// DefaultDebounce.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		debounce:  debounce,
		pending:   make(map[string]struct{}),
	}, nil
}

// SetCallback sets the function to call when a history changes.
func (w *Watcher) SetCallback(cb Callback) {
	w.callback = cb
}

// AddHistory watches the storage of spec: the builds directory and every
// build below it for a directory history, the git directory and its refs
// for a git history.
func (w *Watcher) AddHistory(spec history.Spec) error {
	var root string
	switch spec.Source {
	case history.SourceGit:
		root = filepath.Join(spec.Path, ".git")
		if err := w.fsWatcher.Add(root); err != nil {
			return err
		}
		root = filepath.Join(root, "refs")
	default:
		root = filepath.Join(spec.Path, "builds")
	}
	return w.addTree(root)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

// Start processes events until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}

// handleEvent records a change. New directories are watched as well, so a
// new build is seen once its record is written.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addTree(event.Name)
		}
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// processDebounced flushes pending changes after the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(w.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if changed := w.takeSettled(time.Now()); len(changed) > 0 && w.callback != nil {
				w.callback(ctx, changed)
			}
		}
	}
}

// takeSettled returns and clears the pending paths if no change was seen
// for the debounce period.
func (w *Watcher) takeSettled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || now.Sub(w.lastSeen) < w.debounce {
		return nil
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	sort.Strings(changed)
	clear(w.pending)
	return changed
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	err := w.fsWatcher.Close()
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}

// WatchedPaths returns the watched directories.
func (w *Watcher) WatchedPaths() []string {
	paths := w.fsWatcher.WatchList()
	sort.Strings(paths)
	return paths
}
