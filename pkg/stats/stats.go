// Package stats summarizes dataset series.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/trendline/pkg/trend"
)

// Direction describes where a series is heading.
type Direction string

const (
	Rising  Direction = "rising"
	Falling Direction = "falling"
	Flat    Direction = "flat"
)

func (d Direction) String() string {
	return string(d)
}

// flatSlope is the largest absolute slope still considered flat.
const flatSlope = 1e-9

// SeriesStats holds summary and regression statistics of one series.
type SeriesStats struct {
	Name        string    `json:"name" yaml:"name"`
	Points      int       `json:"points" yaml:"points"`
	Min         int       `json:"min" yaml:"min"`
	Max         int       `json:"max" yaml:"max"`
	Mean        float64   `json:"mean" yaml:"mean"`
	Median      float64   `json:"median" yaml:"median"`
	First       int       `json:"first" yaml:"first"`
	Latest      int       `json:"latest" yaml:"latest"`
	Slope       float64   `json:"slope" yaml:"slope"`         // change per column
	Intercept   float64   `json:"intercept" yaml:"intercept"` // value at column 0
	RSquared    float64   `json:"r_squared" yaml:"r_squared"` // goodness of fit (0-1)
	Correlation float64   `json:"correlation" yaml:"correlation"`
	Direction   Direction `json:"direction" yaml:"direction"`
}

// Change returns the difference between the latest and the first value.
func (s SeriesStats) Change() int {
	return s.Latest - s.First
}

// Compute returns the statistics of every series of ds, in row order.
func Compute(ds *trend.Dataset) []SeriesStats {
	out := make([]SeriesStats, 0, len(ds.Series))
	for _, s := range ds.Series {
		out = append(out, ComputeSeries(s.Name, s.Values))
	}
	return out
}

// ComputeSeries calculates the statistics of one series. Regression values
// are zero when fewer than 2 points are provided or when they are undefined
// (a constant series has no correlation).
func ComputeSeries(name string, values []int) SeriesStats {
	n := len(values)
	st := SeriesStats{Name: name, Points: n, Direction: Flat}
	if n == 0 {
		return st
	}

	xs := make([]float64, n) // column index (0, 1, 2, ...)
	ys := make([]float64, n)
	st.Min, st.Max = values[0], values[0]
	for i, v := range values {
		xs[i] = float64(i)
		ys[i] = float64(v)
		st.Min = min(st.Min, v)
		st.Max = max(st.Max, v)
	}
	st.First = values[0]
	st.Latest = values[n-1]
	st.Mean = stat.Mean(ys, nil)

	sorted := append([]float64(nil), ys...)
	sort.Float64s(sorted)
	st.Median = Percentile(sorted, 50)

	if n < 2 {
		return st
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	st.Intercept = finite(intercept)
	st.Slope = finite(slope)
	st.RSquared = finite(stat.RSquared(xs, ys, nil, intercept, slope))
	st.Correlation = finite(stat.Correlation(xs, ys, nil))

	switch {
	case st.Slope > flatSlope:
		st.Direction = Rising
	case st.Slope < -flatSlope:
		st.Direction = Falling
	}
	return st
}

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
