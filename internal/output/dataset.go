package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/panbanda/trendline/pkg/stats"
	"github.com/panbanda/trendline/pkg/trend"
)

// DatasetData is the structured form of a rendered dataset.
type DatasetData struct {
	Title   string              `json:"title,omitempty" yaml:"title,omitempty" toon:"title"`
	Graph   string              `json:"graph" yaml:"graph" toon:"graph"`
	Dataset *trend.Dataset      `json:"dataset" yaml:"dataset" toon:"dataset"`
	Stats   []stats.SeriesStats `json:"stats,omitempty" yaml:"stats,omitempty" toon:"stats"`
}

// DatasetView renders a dataset as a table with one row per label and one
// column per series, followed by the series statistics.
type DatasetView struct {
	Data DatasetData
}

// NewDatasetView creates a view of ds built with the given serialized graph
// configuration.
func NewDatasetView(title, graph string, ds *trend.Dataset, st []stats.SeriesStats) *DatasetView {
	return &DatasetView{Data: DatasetData{Title: title, Graph: graph, Dataset: ds, Stats: st}}
}

func (v *DatasetView) RenderData() any {
	return v.Data
}

func (v *DatasetView) RenderText(w io.Writer, colored bool) error {
	for _, t := range v.tables(colored) {
		if err := t.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (v *DatasetView) RenderMarkdown(w io.Writer) error {
	for _, t := range v.tables(false) {
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

func (v *DatasetView) tables(colored bool) []*Table {
	ds := v.Data.Dataset
	title := v.Data.Title
	if title == "" {
		title = "Dataset"
	}
	if v.Data.Graph != "" {
		title = fmt.Sprintf("%s (%s)", title, v.Data.Graph)
	}

	headers := append([]string{axisHeader(ds.Domain)}, ds.Names()...)
	rows := make([][]string, ds.Len())
	for i, label := range ds.Labels {
		row := make([]string, 0, len(ds.Series)+1)
		row = append(row, label)
		for _, s := range ds.Series {
			row = append(row, strconv.Itoa(s.Values[i]))
		}
		rows[i] = row
	}
	tables := []*Table{NewTable(title, headers, rows, nil, nil)}

	if len(v.Data.Stats) > 0 {
		tables = append(tables, statsTable(v.Data.Stats, colored))
	}
	return tables
}

func statsTable(st []stats.SeriesStats, colored bool) *Table {
	headers := []string{"Series", "Min", "Max", "Mean", "Latest", "Change", "Slope", "R²", "Trend"}
	rows := make([][]string, len(st))
	for i, s := range st {
		direction := s.Direction.String()
		if colored {
			direction = TrendColor(direction, direction)
		}
		rows[i] = []string{
			s.Name,
			strconv.Itoa(s.Min),
			strconv.Itoa(s.Max),
			fmt.Sprintf("%.2f", s.Mean),
			strconv.Itoa(s.Latest),
			fmt.Sprintf("%+d", s.Change()),
			fmt.Sprintf("%.3f", s.Slope),
			fmt.Sprintf("%.2f", s.RSquared),
			direction,
		}
	}
	return NewTable("Statistics", headers, rows, nil, nil)
}

func axisHeader(d trend.Domain) string {
	if d == trend.DomainDate {
		return "Date"
	}
	return "Build"
}
