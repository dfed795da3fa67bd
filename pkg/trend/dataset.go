package trend

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrSeriesMismatch is returned when the vectors of one job do not share the
// same components.
var ErrSeriesMismatch = errors.New("series vectors differ in shape")

// Domain is the horizontal axis of a dataset.
type Domain string

const (
	DomainBuild Domain = "build"
	DomainDate  Domain = "date"
)

func (d Domain) String() string {
	return string(d)
}

// Series is one named row of a dataset.
type Series struct {
	Name   string `json:"name" yaml:"name"`
	Values []int  `json:"values" yaml:"values"`
}

// Dataset is a dense table: one value per series and axis label.
type Dataset struct {
	Domain Domain   `json:"domain" yaml:"domain"`
	Labels []string `json:"labels" yaml:"labels"`
	Series []Series `json:"series" yaml:"series"`
}

// Len returns the number of columns.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// IsEmpty reports whether the dataset has no columns.
func (d *Dataset) IsEmpty() bool {
	return len(d.Labels) == 0
}

// Names returns the series names in row order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Series))
	for i, s := range d.Series {
		names[i] = s.Name
	}
	return names
}

// Values returns the values of the named series.
func (d *Dataset) Values(name string) ([]int, bool) {
	for _, s := range d.Series {
		if s.Name == name {
			return s.Values, true
		}
	}
	return nil, false
}

// Column returns the vector of column i.
func (d *Dataset) Column(i int) Vector {
	v := make(Vector, len(d.Series))
	for j, s := range d.Series {
		v[j] = Component{Name: s.Name, Value: s.Values[i]}
	}
	return v
}

// Fingerprint hashes labels, names and values. Equal datasets have equal
// fingerprints.
func (d *Dataset) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	h.WriteString(string(d.Domain))
	for _, l := range d.Labels {
		h.WriteString(l)
		h.Write([]byte{0})
	}
	for _, s := range d.Series {
		h.WriteString(s.Name)
		h.Write([]byte{0})
		for _, v := range s.Values {
			binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// tableBuilder collects labeled columns and turns them into a dense Dataset.
type tableBuilder struct {
	domain  Domain
	labels  []string
	columns []Vector
	// strict rejects columns that miss a component seen in another column;
	// otherwise missing components become 0.
	strict bool
}

func (b *tableBuilder) add(label string, v Vector) {
	b.labels = append(b.labels, label)
	b.columns = append(b.columns, v)
}

func (b *tableBuilder) build() (*Dataset, error) {
	var names []string
	index := make(map[string]int)
	for _, col := range b.columns {
		for _, c := range col {
			if _, ok := index[c.Name]; !ok {
				index[c.Name] = len(names)
				names = append(names, c.Name)
			}
		}
	}

	series := make([]Series, len(names))
	for i, name := range names {
		series[i] = Series{Name: name, Values: make([]int, len(b.columns))}
	}
	for col, v := range b.columns {
		if b.strict && len(v) != len(names) {
			return nil, fmt.Errorf("column %s has %d of %d series: %w", b.labels[col], len(v), len(names), ErrSeriesMismatch)
		}
		for _, c := range v {
			series[index[c.Name]].Values[col] = c.Value
		}
	}

	labels := b.labels
	if labels == nil {
		labels = []string{}
	}
	if series == nil {
		series = []Series{}
	}
	return &Dataset{Domain: b.domain, Labels: labels, Series: series}, nil
}
