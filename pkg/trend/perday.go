package trend

import (
	"fmt"
	"time"

	"github.com/panbanda/trendline/pkg/models"
)

// Observation pairs a run with the vector extracted from it.
type Observation struct {
	Run    models.Run
	Vector Vector
}

// DailySeries maps calendar dates to one vector per date.
type DailySeries map[Date]Vector

// Dates returns the dates of the series in ascending order.
func (s DailySeries) Dates() []Date {
	dates := make([]Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sortDates(dates)
	return dates
}

// Extract maps every run through extract. Runs that yield an empty vector
// are dropped.
func Extract(runs []models.Run, extract SeriesExtractor) []Observation {
	observations := make([]Observation, 0, len(runs))
	for _, run := range runs {
		v := extract(run)
		if len(v) == 0 {
			continue
		}
		observations = append(observations, Observation{Run: run, Vector: v})
	}
	return observations
}

// AverageByDay groups the observations of one job by the calendar date of
// their run in loc. A date with a single observation keeps its vector; a date
// with several gets the component-wise average, truncated to an integer.
//
// All vectors of one date must have the same components in the same order.
// A mismatch means the extractor is broken and AverageByDay panics.
func AverageByDay(observations []Observation, loc *time.Location) DailySeries {
	grouped := make(map[Date][]Vector)
	for _, o := range observations {
		d := DateOf(o.Run.Timestamp(), loc)
		grouped[d] = append(grouped[d], o.Vector)
	}

	perDay := make(DailySeries, len(grouped))
	for d, vectors := range grouped {
		perDay[d] = average(d, vectors)
	}
	return perDay
}

func average(d Date, vectors []Vector) Vector {
	if len(vectors) == 1 {
		return vectors[0].clone()
	}
	sum := vectors[0].clone()
	for _, v := range vectors[1:] {
		if len(v) != len(sum) {
			panic(fmt.Sprintf("trend: cannot average series on %s: %d components vs %d", d, len(v), len(sum)))
		}
		for i, c := range v {
			if c.Name != sum[i].Name {
				panic(fmt.Sprintf("trend: cannot average series on %s: component %d is %q vs %q", d, i, c.Name, sum[i].Name))
			}
			sum[i].Value += c.Value
		}
	}
	n := len(vectors)
	for i := range sum {
		sum[i].Value /= n
	}
	return sum
}
