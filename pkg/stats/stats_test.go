package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panbanda/trendline/pkg/trend"
)

func TestComputeSeries(t *testing.T) {
	tests := []struct {
		name      string
		values    []int
		slope     float64
		direction Direction
	}{
		{"rising", []int{1, 2, 3, 4}, 1, Rising},
		{"falling", []int{10, 8, 6}, -2, Falling},
		{"constant", []int{5, 5, 5}, 0, Flat},
		{"single point", []int{7}, 0, Flat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ComputeSeries("total", tt.values)
			assert.Equal(t, "total", st.Name)
			assert.Equal(t, len(tt.values), st.Points)
			assert.InDelta(t, tt.slope, st.Slope, 1e-9)
			assert.Equal(t, tt.direction, st.Direction)
		})
	}
}

func TestComputeSeries_Summary(t *testing.T) {
	st := ComputeSeries("low", []int{8, 6, 6, 10})

	assert.Equal(t, 6, st.Min)
	assert.Equal(t, 10, st.Max)
	assert.InDelta(t, 7.5, st.Mean, 1e-9)
	assert.Equal(t, 8.0, st.Median)
	assert.Equal(t, 8, st.First)
	assert.Equal(t, 10, st.Latest)
	assert.Equal(t, 2, st.Change())
}

func TestComputeSeries_PerfectFit(t *testing.T) {
	st := ComputeSeries("x", []int{3, 5, 7, 9})
	assert.InDelta(t, 2.0, st.Slope, 1e-9)
	assert.InDelta(t, 3.0, st.Intercept, 1e-9)
	assert.InDelta(t, 1.0, st.RSquared, 1e-9)
	assert.InDelta(t, 1.0, st.Correlation, 1e-9)
}

func TestComputeSeries_ConstantHasNoNaN(t *testing.T) {
	st := ComputeSeries("x", []int{4, 4, 4})
	assert.Equal(t, 0.0, st.Correlation)
	assert.Equal(t, 0.0, st.RSquared)
}

func TestComputeSeries_Empty(t *testing.T) {
	st := ComputeSeries("x", nil)
	assert.Equal(t, 0, st.Points)
	assert.Equal(t, Flat, st.Direction)
}

func TestCompute(t *testing.T) {
	ds := &trend.Dataset{
		Domain: trend.DomainBuild,
		Labels: []string{"#3", "#4", "#5"},
		Series: []trend.Series{
			{Name: "low", Values: []int{8, 6, 6}},
			{Name: "high", Values: []int{0, 1, 2}},
		},
	}

	got := Compute(ds)
	assert.Len(t, got, 2)
	assert.Equal(t, "low", got[0].Name)
	assert.Equal(t, Falling, got[0].Direction)
	assert.Equal(t, Rising, got[1].Direction)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 50))
	assert.Equal(t, 3.0, Percentile([]float64{1, 2, 3, 4}, 50))
	assert.Equal(t, 4.0, Percentile([]float64{1, 2, 3, 4}, 100))
	assert.Equal(t, 1.0, Percentile([]float64{1, 2, 3, 4}, 0))
}
