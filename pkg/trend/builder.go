package trend

import (
	"sort"
	"time"

	"github.com/panbanda/trendline/pkg/models"
)

// Builder creates datasets from run histories using one SeriesExtractor.
type Builder struct {
	extract SeriesExtractor
	age     AgePredicate
	loc     *time.Location
}

// Option configures a Builder.
type Option func(*Builder)

// WithAgePredicate replaces the default ResultTime.
func WithAgePredicate(p AgePredicate) Option {
	return func(b *Builder) {
		b.age = p
	}
}

// WithLocation sets the location used to derive calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// NewBuilder creates a Builder. Without WithAgePredicate the builder uses a
// wall-clock ResultTime in the builder's location.
func NewBuilder(extract SeriesExtractor, opts ...Option) *Builder {
	b := &Builder{
		extract: extract,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.age == nil {
		b.age = NewResultTime(WithTimeLocation(b.loc))
	}
	return b
}

// Location returns the location used for calendar dates.
func (b *Builder) Location() *time.Location {
	return b.loc
}

// Observe selects the run window and extracts a vector from every run in it.
func (b *Builder) Observe(cfg WindowConfig, runs models.RunIterator) []Observation {
	return Extract(SelectWindow(cfg, runs, b.age), b.extract)
}

// CreateDataSet builds the dataset of a single job. The runs must be ordered
// newest first. The configuration selects the build-number or date axis.
func (b *Builder) CreateDataSet(cfg WindowConfig, runs models.RunIterator) (*Dataset, error) {
	observations := b.Observe(cfg, runs)
	if cfg.UseBuildDateAsDomain() {
		return perDayDataset(AverageByDay(observations, b.loc), true)
	}
	return perBuildDataset(observations)
}

// JobHistory is the newest-first run history of one job.
type JobHistory struct {
	Job  string
	Runs models.RunIterator
}

// SeriesPerDay returns the averaged per-day series of one job.
func (b *Builder) SeriesPerDay(cfg WindowConfig, runs models.RunIterator) DailySeries {
	return AverageByDay(b.Observe(cfg, runs), b.loc)
}

// CreateAggregation builds a date-axis dataset with the combined totals of
// several jobs.
func (b *Builder) CreateAggregation(cfg WindowConfig, jobs []JobHistory) (*Dataset, error) {
	series := make([]JobSeries, 0, len(jobs))
	for _, job := range jobs {
		series = append(series, JobSeries{Job: job.Job, Days: b.SeriesPerDay(cfg, job.Runs)})
	}
	return perDayDataset(MergeJobs(series), false)
}

// perBuildDataset creates one column per run, ascending by build number.
// Observations arrive newest first, so of two runs sharing a build number
// the newer one is kept, unlike an overwriting map that keeps the oldest.
func perBuildDataset(observations []Observation) (*Dataset, error) {
	sorted := make([]Observation, 0, len(observations))
	seen := make(map[int]bool, len(observations))
	for _, o := range observations {
		if seen[o.Run.Number()] {
			continue
		}
		seen[o.Run.Number()] = true
		sorted = append(sorted, o)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Run.Number() < sorted[j].Run.Number()
	})

	tb := &tableBuilder{domain: DomainBuild, strict: true}
	for _, o := range sorted {
		tb.add(o.Run.DisplayName(), o.Vector)
	}
	return tb.build()
}

// perDayDataset creates one column per date, ascending.
func perDayDataset(days DailySeries, strict bool) (*Dataset, error) {
	tb := &tableBuilder{domain: DomainDate, strict: strict}
	for _, d := range days.Dates() {
		tb.add(d.String(), days[d])
	}
	return tb.build()
}
