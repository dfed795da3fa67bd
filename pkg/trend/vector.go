package trend

import (
	"strconv"

	"github.com/panbanda/trendline/pkg/models"
)

// Component is one named value of a series vector.
type Component struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Vector is the ordered set of metrics extracted from one run. The order is
// the stacking order of the plotted series.
type Vector []Component

// SeriesExtractor maps a run to its series vector. Every vector returned by
// one extractor for one job must have the same shape.
type SeriesExtractor func(run models.Run) Vector

// Levels builds a vector whose components are named by position ("0", "1", ...).
func Levels(values ...int) Vector {
	v := make(Vector, len(values))
	for i, value := range values {
		v[i] = Component{Name: strconv.Itoa(i), Value: value}
	}
	return v
}

// Names returns the component names in order.
func (v Vector) Names() []string {
	names := make([]string, len(v))
	for i, c := range v {
		names[i] = c.Name
	}
	return names
}

// Values returns the component values in order.
func (v Vector) Values() []int {
	values := make([]int, len(v))
	for i, c := range v {
		values[i] = c.Value
	}
	return values
}

// Get returns the value of the named component.
func (v Vector) Get(name string) (int, bool) {
	for _, c := range v {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

// clone returns a copy that can be mutated without touching v.
func (v Vector) clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// addByName sums add into total by component name. Names not yet present in
// total are appended in the order they appear in add.
func addByName(total, add Vector) Vector {
	out := total.clone()
	for _, c := range add {
		found := false
		for i := range out {
			if out[i].Name == c.Name {
				out[i].Value += c.Value
				found = true
				break
			}
		}
		if !found {
			out = append(out, c)
		}
	}
	return out
}
