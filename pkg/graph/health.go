package graph

import (
	"github.com/panbanda/trendline/pkg/models"
	"github.com/panbanda/trendline/pkg/trend"
)

// HealthDescriptor holds the thresholds used by the HEALTH graph. A negative
// value disables the corresponding threshold.
type HealthDescriptor struct {
	Healthy   int
	Unhealthy int
	// Threshold is the lower bound used when only a single threshold is set.
	Threshold int
}

// DisabledHealth disables health reporting.
var DisabledHealth = HealthDescriptor{Healthy: -1, Unhealthy: -1, Threshold: -1}

// HealthyReportEnabled reports whether both health thresholds are usable.
func (h HealthDescriptor) HealthyReportEnabled() bool {
	return h.Healthy >= 0 && h.Unhealthy > h.Healthy
}

// ThresholdEnabled reports whether a single threshold is set.
func (h HealthDescriptor) ThresholdEnabled() bool {
	return h.Threshold >= 0
}

// Extractor splits the total number of issues into health levels.
//
// With both thresholds set the levels are: up to Healthy, up to Unhealthy,
// and the rest. With a single threshold there are two levels. Otherwise the
// total forms a single level so a graph is still shown.
func (h HealthDescriptor) Extractor() trend.SeriesExtractor {
	return func(run models.Run) trend.Vector {
		res, ok := result(run)
		if !ok {
			return nil
		}
		remainder := res.Total()

		switch {
		case h.HealthyReportEnabled():
			healthy := min(remainder, h.Healthy)
			remainder -= h.Healthy
			span := h.Unhealthy - h.Healthy
			warning := clampZero(min(remainder, span))
			remainder -= span
			return trend.Levels(healthy, warning, clampZero(remainder))
		case h.ThresholdEnabled():
			below := min(remainder, h.Threshold)
			remainder -= h.Threshold
			return trend.Levels(below, clampZero(remainder))
		default:
			return trend.Levels(remainder)
		}
	}
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
