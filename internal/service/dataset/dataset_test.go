package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/trendline/internal/cache"
	"github.com/panbanda/trendline/pkg/config"
	"github.com/panbanda/trendline/pkg/history"
	"github.com/panbanda/trendline/pkg/models"
)

var today = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

// runs creates a newest-first history whose totals are values, one build per
// day ending yesterday.
func runs(job string, values ...int) []models.Run {
	out := make([]models.Run, len(values))
	for i, v := range values {
		number := len(values) - i
		r := models.NewAnalysisResult(job, number, today.AddDate(0, 0, -(i+1)))
		r.Low = v
		out[i] = r
	}
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.History.TimeZone = "UTC"
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

type fakeOpener struct {
	histories map[string][]models.Run
	opened    atomic.Int32
}

func (f *fakeOpener) open(_ context.Context, spec history.Spec) (history.History, error) {
	f.opened.Add(1)
	rs, ok := f.histories[spec.Path]
	if !ok {
		return nil, history.ErrNoHistory
	}
	return history.NewSlice(spec.Name(), rs...), nil
}

func newService(t *testing.T, f *fakeOpener, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithConfig(testConfig(t)),
		WithOpener(f.open),
		WithToday(func() time.Time { return today }),
	}, opts...)
	svc, err := New(opts...)
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(WithConfig(cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, svc.Config())
	assert.NotNil(t, svc.Cache())
	assert.True(t, svc.Cache().Enabled())
	assert.DirExists(t, cfg.Cache.Dir)
}

func TestDataset_BuildCountWindow(t *testing.T) {
	f := &fakeOpener{histories: map[string][]models.Run{
		"core": runs("core", 6, 6, 8, 8, 10),
	}}
	svc := newService(t, f)

	res, err := svc.Dataset(context.Background(), history.Spec{Path: "core", Job: "core"}, "500!200!3!0!TOTALS!0!!")
	require.NoError(t, err)

	assert.Equal(t, []string{"core"}, res.Jobs)
	assert.Equal(t, []string{"#3", "#4", "#5"}, res.Dataset.Labels)
	values, ok := res.Dataset.Values("total")
	require.True(t, ok)
	assert.Equal(t, []int{8, 6, 6}, values)
	require.Len(t, res.Stats, 1)
	assert.Equal(t, -2, res.Stats[0].Change())
	assert.False(t, res.Cached)
}

func TestDataset_DayWindowUsesToday(t *testing.T) {
	f := &fakeOpener{histories: map[string][]models.Run{
		"core": runs("core", 1, 2, 3, 4),
	}}
	svc := newService(t, f)

	res, err := svc.Dataset(context.Background(), history.Spec{Path: "core"}, "500!200!0!3!TOTALS!1!!")
	require.NoError(t, err)

	// A 3 day window ends before the build from 3 days ago.
	assert.Equal(t, []string{"2024-03-08", "2024-03-09"}, res.Dataset.Labels)
	values, _ := res.Dataset.Values("total")
	assert.Equal(t, []int{2, 1}, values)
}

func TestDataset_InvalidGraphFallsBackToDefault(t *testing.T) {
	f := &fakeOpener{histories: map[string][]models.Run{
		"core": runs("core", 1, 2),
	}}
	svc := newService(t, f)

	res, err := svc.Dataset(context.Background(), history.Spec{Path: "core"}, "not a graph")
	require.NoError(t, err)
	assert.True(t, res.Graph.IsDefault())
	assert.Equal(t, []string{"low", "normal", "high"}, res.Dataset.Names())
}

func TestDataset_UsesCache(t *testing.T) {
	f := &fakeOpener{histories: map[string][]models.Run{
		"core": runs("core", 3, 2, 1),
	}}
	svc := newService(t, f)
	ctx := context.Background()
	spec := history.Spec{Path: "core"}

	first, err := svc.Dataset(ctx, spec, "500!200!0!0!TOTALS!0!!")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Dataset(ctx, spec, "500!200!0!0!TOTALS!0!!")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Dataset.Fingerprint(), second.Dataset.Fingerprint())

	// A new build changes the latest run and misses the cache.
	f.histories["core"] = append([]models.Run{models.NewAnalysisResult("core", 4, today)}, f.histories["core"]...)
	third, err := svc.Dataset(ctx, spec, "500!200!0!0!TOTALS!0!!")
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 4, third.Dataset.Len())
}

func TestDataset_DisabledCache(t *testing.T) {
	f := &fakeOpener{histories: map[string][]models.Run{
		"core": runs("core", 3, 2, 1),
	}}
	disabled, err := cache.New("", 0, false)
	require.NoError(t, err)
	svc := newService(t, f, WithCache(disabled))

	for range 2 {
		res, err := svc.Dataset(context.Background(), history.Spec{Path: "core"}, "")
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}
}

func TestDataset_OpenError(t *testing.T) {
	svc := newService(t, &fakeOpener{})

	_, err := svc.Dataset(context.Background(), history.Spec{Path: "missing"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrNoHistory)

	var openErr *OpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, "missing", openErr.Job)
}

func TestAggregate_ForwardFillsAcrossJobs(t *testing.T) {
	d1 := today.AddDate(0, 0, -3)
	d3 := today.AddDate(0, 0, -1)
	a := models.NewAnalysisResult("a", 1, d1)
	a.Low = 2
	b1 := models.NewAnalysisResult("b", 1, d1)
	b1.Low = 5
	b2 := models.NewAnalysisResult("b", 2, d3)
	b2.Low = 7

	f := &fakeOpener{histories: map[string][]models.Run{
		"a": {a},
		"b": {b2, b1},
	}}
	svc := newService(t, f)

	res, err := svc.Aggregate(context.Background(), []history.Spec{{Path: "a"}, {Path: "b"}}, "500!200!0!0!TOTALS!1!!")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, res.Jobs)
	assert.Equal(t, "a (+1 jobs)", res.Title())
	assert.Equal(t, []string{"2024-03-07", "2024-03-09"}, res.Dataset.Labels)
	values, _ := res.Dataset.Values("total")
	assert.Equal(t, []int{7, 9}, values)
}

func TestAggregate_NoJobs(t *testing.T) {
	svc := newService(t, &fakeOpener{})
	_, err := svc.Aggregate(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoJobs)
}

func TestOpenAll_PreservesOrder(t *testing.T) {
	f := &fakeOpener{histories: map[string][]models.Run{}}
	var specs []history.Spec
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		f.histories[name] = runs(name, 1)
		specs = append(specs, history.Spec{Path: name, Job: name})
	}
	svc := newService(t, f, WithWorkers(2))

	hs, err := svc.OpenAll(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, hs, len(specs))
	for i, h := range hs {
		assert.Equal(t, specs[i].Job, h.Job())
	}
	assert.EqualValues(t, len(specs), f.opened.Load())
}

func TestResolveFillsDefaults(t *testing.T) {
	svc := newService(t, &fakeOpener{})
	svc.config.History.Source = "git"
	svc.config.History.ResultFile = "reports/analysis.json"

	got := svc.Resolve([]history.Spec{
		{Path: "a"},
		{Path: "b", Source: history.SourceDir},
		{Path: "c", ResultFile: "other.json"},
	})
	assert.Equal(t, history.SourceGit, got[0].Source)
	assert.Equal(t, "reports/analysis.json", got[0].ResultFile)
	assert.Equal(t, history.SourceDir, got[1].Source)
	assert.Empty(t, got[1].ResultFile)
	assert.Equal(t, "other.json", got[2].ResultFile)
}

func TestCheck(t *testing.T) {
	svc := newService(t, &fakeOpener{})

	cfg, err := svc.Check("600!300!5!0!NEW!0!!")
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width())
	assert.Equal(t, 5, cfg.BuildCount())

	_, err = svc.Check("10!300!5!0!NEW!0!!")
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	content := `graph: 500!200!0!30!TOTALS!1!!
jobs:
  - path: core
  - path: /abs/web
    source: git
    job: web
    ref: main
  - path: panbanda/ci-results@nightly
    source: git
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "500!200!0!30!TOTALS!1!!", m.Graph)
	require.Len(t, m.Jobs, 3)
	assert.Equal(t, filepath.Join(dir, "core"), m.Jobs[0].Path)
	assert.Equal(t, "/abs/web", m.Jobs[1].Path)
	assert.Equal(t, history.SourceGit, m.Jobs[1].Source)
	assert.Equal(t, "main", m.Jobs[1].Ref)
	assert.Equal(t, "panbanda/ci-results@nightly", m.Jobs[2].Path)
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("jobs: []\n"), 0644))
	_, err := LoadManifest(empty)
	assert.ErrorIs(t, err, ErrNoJobs)

	noPath := filepath.Join(dir, "nopath.yaml")
	require.NoError(t, os.WriteFile(noPath, []byte("jobs:\n  - job: core\n"), 0644))
	_, err = LoadManifest(noPath)
	assert.Error(t, err)

	_, err = LoadManifest(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCheckReport(t *testing.T) {
	svc := newService(t, &fakeOpener{})

	valid := svc.CheckReport("600!300!5!0!NEW!0!!")
	assert.True(t, valid.Valid)
	assert.Empty(t, valid.Problems)
	assert.Equal(t, "600!300!5!0!NEW!0!!", valid.Effective)
	assert.Contains(t, valid.GraphTypes, "PRIORITY")
	assert.Equal(t, "5", valid.Form["buildCountString"])
	assert.Equal(t, "", valid.Form["dayCountString"])
	assert.Equal(t, "NEW", valid.Form["graphType"])
	assert.Equal(t, 600, valid.Form["width"])
	assert.False(t, valid.Default)

	invalid := svc.CheckReport("10!10!1!0!NEW!0!!")
	assert.False(t, invalid.Valid)
	assert.Len(t, invalid.Problems, 3)
	assert.Equal(t, "500!200!0!0!PRIORITY!0!!", invalid.Effective)
	assert.True(t, invalid.Default)
}
