package trend

import (
	"time"

	"github.com/panbanda/trendline/pkg/models"
)

type windowConfig struct {
	buildCount int
	dayCount   int
	byDate     bool
	paramName  string
	paramValue string
}

func (c windowConfig) IsBuildCountDefined() bool { return c.buildCount > 1 }
func (c windowConfig) BuildCount() int           { return c.buildCount }
func (c windowConfig) IsDayCountDefined() bool   { return c.dayCount > 0 }
func (c windowConfig) DayCount() int             { return c.dayCount }
func (c windowConfig) UseBuildDateAsDomain() bool {
	return c.byDate
}
func (c windowConfig) ParameterFilter() (string, string) {
	return c.paramName, c.paramValue
}

// stubAge answers IsTooOld from a fixed list; the last answer repeats.
type stubAge struct {
	answers []bool
	calls   int
}

func (s *stubAge) IsTooOld(WindowConfig, models.Run) bool {
	i := s.calls
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	s.calls++
	return s.answers[i]
}

func neverTooOld() *stubAge {
	return &stubAge{answers: []bool{false}}
}

// countingIterator records how many times Next was called.
type countingIterator struct {
	inner *models.SliceIterator
	calls int
}

func (c *countingIterator) Next() (models.Run, bool) {
	c.calls++
	return c.inner.Next()
}

var day0 = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func run(number int, ts time.Time) *models.AnalysisResult {
	return models.NewAnalysisResult("job", number, ts)
}

func iter(runs ...*models.AnalysisResult) *models.SliceIterator {
	rs := make([]models.Run, len(runs))
	for i, r := range runs {
		rs[i] = r
	}
	return models.NewSliceIterator(rs...)
}

// totals returns runs numbered 1..len(values) (newest first) with one run
// per day, ending on day0, carrying the given totals as low severity issues.
func totals(values ...int) []*models.AnalysisResult {
	n := len(values)
	runs := make([]*models.AnalysisResult, n)
	for i, v := range values {
		number := i + 1
		r := run(number, day0.AddDate(0, 0, number-n))
		r.Low = v
		runs[n-number] = r
	}
	return runs
}

func totalExtractor(r models.Run) Vector {
	res := r.(*models.AnalysisResult)
	return Vector{{Name: "total", Value: res.Total()}}
}

func priorityExtractor(r models.Run) Vector {
	res := r.(*models.AnalysisResult)
	return Vector{
		{Name: "low", Value: res.Low},
		{Name: "normal", Value: res.Normal},
		{Name: "high", Value: res.High},
	}
}

func numbers(runs []models.Run) []int {
	out := make([]int, len(runs))
	for i, r := range runs {
		out[i] = r.Number()
	}
	return out
}
