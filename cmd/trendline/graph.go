package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/trendline/internal/output"
	"github.com/panbanda/trendline/internal/service/dataset"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Inspect graph configurations",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Validate a serialized graph configuration",
				ArgsUsage: "<value>",
				Description: `Parses width!height!buildCount!dayCount!graphType!useBuildDate!parameterName!parameterValue,
lists every problem, and shows the configuration that would be used.

Examples:
  trendline graph check '500!200!0!30!PRIORITY!1!!'
  trendline graph check '500!200!1!0!NEW!0!!'`,
				Action: runGraphCheckCmd,
			},
			{
				Name:   "types",
				Usage:  "List the available graph types",
				Action: runGraphTypesCmd,
			},
		},
	}
}

func runGraphCheckCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("graph check takes exactly one value")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := dataset.New(dataset.WithConfig(cfg))
	if err != nil {
		return err
	}
	report := svc.CheckReport(c.Args().First())

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(checkTable(report)); err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("invalid graph configuration (%d problems)", len(report.Problems))
	}
	return nil
}

func checkTable(report *dataset.CheckReport) *output.Table {
	s := report.Settings
	rows := [][]string{
		{"width", strconv.Itoa(s.Width)},
		{"height", strconv.Itoa(s.Height)},
		{"buildCount", strconv.Itoa(s.BuildCount)},
		{"dayCount", strconv.Itoa(s.DayCount)},
		{"graphType", s.GraphType},
		{"useBuildDateAsDomain", strconv.FormatBool(s.UseBuildDate)},
		{"parameterName", s.ParameterName},
		{"parameterValue", s.ParameterValue},
	}
	footer := []string{"effective", report.Effective}
	if !report.Valid {
		for _, p := range report.Problems {
			rows = append(rows, []string{color.RedString("problem"), p})
		}
	}
	return output.NewTable("Graph Configuration", []string{"Field", "Value"}, rows, footer, report)
}

func runGraphTypesCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	registry := cfg.Registry()

	var rows [][]string
	type graphType struct {
		ID      string `json:"id" yaml:"id" toon:"id"`
		Label   string `json:"label" yaml:"label" toon:"label"`
		Default bool   `json:"default" yaml:"default" toon:"default"`
	}
	var types []graphType
	for _, id := range registry.IDs() {
		gt, _ := registry.Get(id)
		isDefault := id == registry.Default().ID
		types = append(types, graphType{ID: id, Label: gt.Label, Default: isDefault})
		mark := ""
		if isDefault {
			mark = "*"
		}
		rows = append(rows, []string{id, gt.Label, mark})
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(output.NewTable("Graph Types", []string{"ID", "Label", "Default"}, rows, nil, types))
}
