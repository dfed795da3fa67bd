package trend

import (
	"time"

	"github.com/panbanda/trendline/pkg/models"
)

// WindowConfig is the part of a graph configuration the engine reads.
type WindowConfig interface {
	IsBuildCountDefined() bool
	BuildCount() int
	IsDayCountDefined() bool
	DayCount() int
	UseBuildDateAsDomain() bool
	// ParameterFilter returns the build parameter runs must carry. Both
	// values are empty when no filter is configured.
	ParameterFilter() (name, value string)
}

// AgePredicate decides whether a run falls outside the day window.
type AgePredicate interface {
	IsTooOld(cfg WindowConfig, run models.Run) bool
}

// ResultTime is the default AgePredicate. It compares calendar dates in a
// fixed location against an injectable "today".
type ResultTime struct {
	today func() time.Time
	loc   *time.Location
}

// ResultTimeOption configures a ResultTime.
type ResultTimeOption func(*ResultTime)

// WithToday sets the clock used as "today".
func WithToday(fn func() time.Time) ResultTimeOption {
	return func(r *ResultTime) {
		r.today = fn
	}
}

// WithToDate fixes "today" to the given date.
func WithToDate(d Date) ResultTimeOption {
	return func(r *ResultTime) {
		r.today = func() time.Time {
			return d.Midnight(r.loc)
		}
	}
}

// WithTimeLocation sets the location used to derive calendar dates.
func WithTimeLocation(loc *time.Location) ResultTimeOption {
	return func(r *ResultTime) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// NewResultTime creates a ResultTime using the wall clock and time.Local
// unless overridden.
func NewResultTime(opts ...ResultTimeOption) *ResultTime {
	r := &ResultTime{
		today: time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsTooOld reports whether run is at least DayCount calendar days away from
// today. It is always false when no day count is configured.
func (r *ResultTime) IsTooOld(cfg WindowConfig, run models.Run) bool {
	if !cfg.IsDayCountDefined() {
		return false
	}
	days := DaysBetween(DateOf(run.Timestamp(), r.loc), DateOf(r.today(), r.loc))
	if days < 0 {
		days = -days
	}
	return days >= cfg.DayCount()
}
