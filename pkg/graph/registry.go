package graph

import (
	"sort"

	"github.com/panbanda/trendline/pkg/models"
	"github.com/panbanda/trendline/pkg/trend"
)

// Built-in graph type identifiers.
const (
	TypePriority = "PRIORITY"
	TypeNew      = "NEW"
	TypeTotals   = "TOTALS"
	TypeHealth   = "HEALTH"
	TypeNone     = "NONE"
)

// GraphType is a named way of turning a run into a series vector.
type GraphType struct {
	ID      string
	Label   string
	Extract trend.SeriesExtractor
	// Visible is false for graph types that render nothing.
	Visible bool
}

// Registry resolves graph type identifiers.
type Registry struct {
	types     map[string]GraphType
	defaultID string
}

// NewRegistry creates a registry with the given types. defaultID must be one
// of them.
func NewRegistry(defaultID string, types ...GraphType) *Registry {
	r := &Registry{
		types:     make(map[string]GraphType, len(types)),
		defaultID: defaultID,
	}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// DefaultRegistry returns the built-in graph types with PRIORITY as default.
func DefaultRegistry(health HealthDescriptor) *Registry {
	return NewRegistry(TypePriority,
		GraphType{ID: TypePriority, Label: "Type: Priority", Extract: PriorityExtractor, Visible: true},
		GraphType{ID: TypeNew, Label: "Type: New vs fixed", Extract: NewVersusFixedExtractor, Visible: true},
		GraphType{ID: TypeTotals, Label: "Type: Totals", Extract: TotalsExtractor, Visible: true},
		GraphType{ID: TypeHealth, Label: "Type: Health", Extract: health.Extractor(), Visible: true},
		GraphType{ID: TypeNone, Label: "None", Extract: noneExtractor, Visible: false},
	)
}

// Register adds or replaces a graph type.
func (r *Registry) Register(t GraphType) {
	r.types[t.ID] = t
}

// Get returns the graph type with the given id.
func (r *Registry) Get(id string) (GraphType, bool) {
	t, ok := r.types[id]
	return t, ok
}

// Lookup returns the graph type with the given id, or the default graph type
// when the id is unknown.
func (r *Registry) Lookup(id string) GraphType {
	if t, ok := r.types[id]; ok {
		return t
	}
	return r.Default()
}

// Default returns the default graph type.
func (r *Registry) Default() GraphType {
	return r.types[r.defaultID]
}

// IDs returns all registered identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func result(run models.Run) (*models.AnalysisResult, bool) {
	res, ok := run.(*models.AnalysisResult)
	return res, ok
}

// PriorityExtractor plots issues stacked by severity.
func PriorityExtractor(run models.Run) trend.Vector {
	res, ok := result(run)
	if !ok {
		return nil
	}
	return trend.Vector{
		{Name: "low", Value: res.Low},
		{Name: "normal", Value: res.Normal},
		{Name: "high", Value: res.High},
	}
}

// NewVersusFixedExtractor plots new against fixed issues.
func NewVersusFixedExtractor(run models.Run) trend.Vector {
	res, ok := result(run)
	if !ok {
		return nil
	}
	return trend.Vector{
		{Name: "new", Value: res.New},
		{Name: "fixed", Value: res.Fixed},
	}
}

// TotalsExtractor plots the total number of issues.
func TotalsExtractor(run models.Run) trend.Vector {
	res, ok := result(run)
	if !ok {
		return nil
	}
	return trend.Vector{{Name: "total", Value: res.Total()}}
}

func noneExtractor(models.Run) trend.Vector {
	return nil
}
