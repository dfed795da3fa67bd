package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/trendline/internal/ctxlog"
	"github.com/panbanda/trendline/pkg/models"
)

const (
	buildsDir  = "builds"
	recordFile = "result.json"
)

// Dir is a history stored as one directory per build:
// <root>/builds/<number>/result.json.
type Dir struct {
	job   string
	root  string
	index *roaring.Bitmap
	log   *slog.Logger
}

// OpenDir indexes the builds below root. Records are read on iteration.
func OpenDir(ctx context.Context, root, job string) (*Dir, error) {
	entries, err := os.ReadDir(filepath.Join(root, buildsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", root, ErrNoHistory)
		}
		return nil, fmt.Errorf("reading builds of %s: %w", root, err)
	}

	index := roaring.New()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.ParseUint(e.Name(), 10, 32)
		if err != nil || n == 0 {
			continue
		}
		index.Add(uint32(n))
	}

	d := &Dir{
		job:   job,
		root:  root,
		index: index,
		log:   ctxlog.FromContext(ctx).With("job", job),
	}
	if _, ok := d.Latest(); !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrNoHistory)
	}
	d.log.Debug("indexed build directory", "builds", index.GetCardinality(), "latest", index.Maximum())
	return d, nil
}

func (d *Dir) Job() string {
	return d.job
}

// Len returns the number of indexed builds.
func (d *Dir) Len() int {
	return int(d.index.GetCardinality())
}

// Contains reports whether the build directory exists in the index.
func (d *Dir) Contains(number int) bool {
	return number > 0 && d.index.Contains(uint32(number))
}

func (d *Dir) Runs() models.RunIterator {
	return &dirIterator{dir: d, builds: d.index.ReverseIterator()}
}

func (d *Dir) Latest() (models.Run, bool) {
	return d.Runs().Next()
}

func (d *Dir) load(number uint32) (*models.AnalysisResult, error) {
	path := filepath.Join(d.root, buildsDir, strconv.FormatUint(uint64(number), 10), recordFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if result.BuildNumber != int(number) {
		return nil, fmt.Errorf("%s: %w: number %d in directory %d", path, ErrInvalidRecord, result.BuildNumber, number)
	}
	if result.Job == "" {
		result.Job = d.job
	}
	return result, nil
}

type dirIterator struct {
	dir    *Dir
	builds roaring.IntIterable
	done   bool
}

func (it *dirIterator) Next() (models.Run, bool) {
	if it.done || !it.builds.HasNext() {
		it.done = true
		return nil, false
	}
	number := it.builds.Next()
	result, err := it.dir.load(number)
	if err != nil {
		it.dir.log.Debug("history ends at unreadable build", "build", number, "error", err)
		it.done = true
		return nil, false
	}
	return result, true
}
