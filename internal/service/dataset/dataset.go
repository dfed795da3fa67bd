// Package dataset builds trend datasets from configured run histories.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/trendline/internal/cache"
	"github.com/panbanda/trendline/internal/ctxlog"
	"github.com/panbanda/trendline/internal/progress"
	"github.com/panbanda/trendline/internal/remote"
	"github.com/panbanda/trendline/pkg/config"
	"github.com/panbanda/trendline/pkg/graph"
	"github.com/panbanda/trendline/pkg/history"
	"github.com/panbanda/trendline/pkg/stats"
	"github.com/panbanda/trendline/pkg/trend"
)

// ErrNoJobs is returned when no history is given.
var ErrNoJobs = errors.New("no jobs given")

// OpenFunc opens the history described by a spec.
type OpenFunc func(ctx context.Context, spec history.Spec) (history.History, error)

// OpenError reports a history that could not be opened.
type OpenError struct {
	Job string
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening history of %s: %v", e.Job, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Service orchestrates dataset construction.
type Service struct {
	config   *config.Config
	cache    *cache.Cache
	open     OpenFunc
	today    func() time.Time
	workers  int
	progress bool
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache sets the dataset cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithOpener sets the history opener (for testing).
func WithOpener(open OpenFunc) Option {
	return func(s *Service) {
		s.open = open
	}
}

// WithToday fixes the current time used by day windows.
func WithToday(fn func() time.Time) Option {
	return func(s *Service) {
		s.today = fn
	}
}

// WithWorkers limits how many histories are opened at once.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithProgress draws a progress bar on stderr while opening histories.
func WithProgress(enabled bool) Option {
	return func(s *Service) {
		s.progress = enabled
	}
}

// New creates a new dataset service. Without WithCache the cache is created
// from the configuration.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		open:    history.Open,
		today:   time.Now,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	if s.cache == nil {
		c, err := cache.New(s.config.Cache.Dir, s.config.CacheTTL(), s.config.Cache.Enabled)
		if err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Config returns the configuration in use.
func (s *Service) Config() *config.Config {
	return s.config
}

// Cache returns the dataset cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Result is a computed dataset with its context.
type Result struct {
	Jobs    []string
	Graph   *graph.Configuration
	Dataset *trend.Dataset
	Stats   []stats.SeriesStats
	Cached  bool
}

// Title names the jobs of the result.
func (r *Result) Title() string {
	switch len(r.Jobs) {
	case 0:
		return ""
	case 1:
		return r.Jobs[0]
	default:
		return fmt.Sprintf("%s (+%d jobs)", r.Jobs[0], len(r.Jobs)-1)
	}
}

// Check parses a serialized graph configuration and reports every problem.
func (s *Service) Check(value string) (*graph.Configuration, error) {
	return graph.Parse(s.config.Registry(), value)
}

// CheckReport describes a serialized graph configuration. Form holds the
// effective configuration in the structured form read by --graph-json.
type CheckReport struct {
	Value      string         `json:"value" yaml:"value" toon:"value"`
	Valid      bool           `json:"valid" yaml:"valid" toon:"valid"`
	Problems   []string       `json:"problems,omitempty" yaml:"problems,omitempty" toon:"problems"`
	Effective  string         `json:"effective" yaml:"effective" toon:"effective"`
	Default    bool           `json:"default" yaml:"default" toon:"default"`
	Settings   graph.Settings `json:"settings" yaml:"settings" toon:"settings"`
	Form       map[string]any `json:"form" yaml:"form" toon:"form"`
	GraphTypes []string       `json:"graph_types" yaml:"graph_types" toon:"graph_types"`
}

// CheckReport validates value and reports the configuration that would be
// used for it.
func (s *Service) CheckReport(value string) *CheckReport {
	report := &CheckReport{Value: value, Valid: true, GraphTypes: s.config.Registry().IDs()}
	if _, err := s.Check(value); err != nil {
		report.Valid = false
		report.Problems = problems(err)
	}
	effective := s.config.GraphConfiguration(value)
	report.Effective = effective.Serialize()
	report.Settings = effective.Settings()
	report.Form = effective.ToMap()
	report.Default = effective.IsDefault()
	return report
}

func problems(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, problems(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// Graph resolves a serialized graph configuration, falling back to the
// configured defaults when value is empty or malformed.
func (s *Service) Graph(ctx context.Context, value string) *graph.Configuration {
	if value != "" {
		if _, err := s.Check(value); err != nil {
			ctxlog.FromContext(ctx).Warn("invalid graph configuration, using defaults", "value", value, "error", err)
		}
	}
	return s.config.GraphConfiguration(value)
}

// Dataset builds the dataset of a single job.
func (s *Service) Dataset(ctx context.Context, spec history.Spec, graphValue string) (*Result, error) {
	cfg := s.Graph(ctx, graphValue)
	return s.build(ctx, "dataset", cfg, []history.Spec{spec}, func(b *trend.Builder, hs []history.History) (*trend.Dataset, error) {
		return b.CreateDataSet(cfg, hs[0].Runs())
	})
}

// Aggregate builds the date-axis dataset with the combined totals of
// several jobs.
func (s *Service) Aggregate(ctx context.Context, specs []history.Spec, graphValue string) (*Result, error) {
	cfg := s.Graph(ctx, graphValue)
	return s.build(ctx, "aggregate", cfg, specs, func(b *trend.Builder, hs []history.History) (*trend.Dataset, error) {
		jobs := make([]trend.JobHistory, len(hs))
		for i, h := range hs {
			jobs[i] = trend.JobHistory{Job: h.Job(), Runs: h.Runs()}
		}
		return b.CreateAggregation(cfg, jobs)
	})
}

type buildFunc func(b *trend.Builder, hs []history.History) (*trend.Dataset, error)

func (s *Service) build(ctx context.Context, kind string, cfg *graph.Configuration, specs []history.Spec, fn buildFunc) (*Result, error) {
	log := ctxlog.FromContext(ctx)

	loc, err := s.config.Location()
	if err != nil {
		return nil, fmt.Errorf("loading time zone: %w", err)
	}

	specs = s.Resolve(specs)
	hs, err := s.OpenAll(ctx, specs)
	if err != nil {
		return nil, err
	}

	result := &Result{Graph: cfg, Jobs: make([]string, len(hs))}
	for i, h := range hs {
		result.Jobs[i] = h.Job()
	}

	key := s.key(kind, cfg, loc, specs, hs)
	if ds, ok := s.cache.GetDataset(key); ok {
		log.Debug("dataset cache hit", "kind", kind, "jobs", result.Jobs)
		result.Dataset = ds
		result.Cached = true
		result.Stats = stats.Compute(ds)
		return result, nil
	}

	age := trend.NewResultTime(trend.WithToday(s.today), trend.WithTimeLocation(loc))
	b := trend.NewBuilder(cfg.Extractor(), trend.WithAgePredicate(age), trend.WithLocation(loc))
	ds, err := fn(b, hs)
	if err != nil {
		return nil, fmt.Errorf("building %s of %s: %w", kind, result.Title(), err)
	}
	log.Debug("dataset built", "kind", kind, "jobs", result.Jobs, "columns", ds.Len(), "series", len(ds.Series))

	if err := s.cache.SetDataset(key, ds); err != nil {
		log.Warn("caching dataset failed", "error", err)
	}

	result.Dataset = ds
	result.Stats = stats.Compute(ds)
	return result, nil
}

// OpenAll opens the histories of specs concurrently. The histories are
// returned in the order of specs.
func (s *Service) OpenAll(ctx context.Context, specs []history.Spec) ([]history.History, error) {
	if len(specs) == 0 {
		return nil, ErrNoJobs
	}

	tracker := progress.NewQuiet("Opening histories", len(specs))
	if s.progress && len(specs) > 1 {
		tracker = progress.NewTracker("Opening histories", len(specs))
	}
	defer tracker.Finish()

	out := make([]history.History, len(specs))
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(s.workers)
	for i, spec := range specs {
		p.Go(func(ctx context.Context) error {
			defer tracker.Tick()
			h, err := s.open(ctx, spec)
			if err != nil {
				return &OpenError{Job: spec.Name(), Err: err}
			}
			out[i] = h
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve fills unset spec fields from the configuration.
func (s *Service) Resolve(specs []history.Spec) []history.Spec {
	out := make([]history.Spec, len(specs))
	for i, spec := range specs {
		if spec.Source == "" {
			spec.Source = history.Source(s.config.History.Source)
		}
		if spec.ResultFile == "" && spec.Source == history.SourceGit {
			spec.ResultFile = s.config.History.ResultFile
		}
		out[i] = spec
	}
	return out
}

// key identifies a dataset by everything it is computed from: the graph
// configuration, the calendar day, and the jobs with their newest runs.
func (s *Service) key(kind string, cfg *graph.Configuration, loc *time.Location, specs []history.Spec, hs []history.History) string {
	health := s.config.HealthDescriptor()
	parts := []string{
		kind,
		cfg.Serialize(),
		fmt.Sprintf("%d/%d/%d", health.Healthy, health.Unhealthy, health.Threshold),
		trend.DateOf(s.today(), loc).String(),
		loc.String(),
	}
	for i, h := range hs {
		parts = append(parts, specIdentity(specs[i]), latestIdentity(h))
	}
	return cache.Key(parts...)
}

func specIdentity(spec history.Spec) string {
	path := spec.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", spec.Source, path, spec.Name(), spec.ResultFile, spec.Ref)
}

func latestIdentity(h history.History) string {
	run, ok := h.Latest()
	if !ok {
		return ""
	}
	return strconv.Itoa(run.Number()) + "@" + strconv.FormatInt(run.Timestamp().UnixMilli(), 10)
}

// Manifest lists the jobs of an aggregation.
type Manifest struct {
	Graph string         `yaml:"graph,omitempty"`
	Jobs  []history.Spec `yaml:"jobs"`
}

// LoadManifest reads a YAML jobs manifest. Relative job paths are resolved
// against the manifest's directory, except remote git repositories.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoJobs)
	}

	dir := filepath.Dir(path)
	for i, job := range m.Jobs {
		if job.Path == "" {
			return nil, fmt.Errorf("%s: job %d has no path", path, i+1)
		}
		if filepath.IsAbs(job.Path) {
			continue
		}
		local := filepath.Join(dir, job.Path)
		if job.Source == history.SourceGit && remote.IsRemote(job.Path) {
			if _, err := os.Stat(local); err != nil {
				continue
			}
		}
		m.Jobs[i].Path = local
	}
	return &m, nil
}
