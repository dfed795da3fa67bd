package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/trendline/internal/output"
	"github.com/panbanda/trendline/internal/service/dataset"
	"github.com/panbanda/trendline/internal/watch"
	"github.com/panbanda/trendline/pkg/config"
	"github.com/panbanda/trendline/pkg/graph"
	"github.com/panbanda/trendline/pkg/history"
)

// historyFlags select how job histories are read.
func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "graph",
			Aliases: []string{"g"},
			Usage:   "Serialized graph configuration width!height!buildCount!dayCount!graphType!useBuildDate!parameterName!parameterValue",
		},
		&cli.StringFlag{
			Name:  "graph-json",
			Usage: "Graph configuration as a JSON file with the keys of the configuration form",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "History source: dir or git (default from config)",
		},
		&cli.StringFlag{
			Name:  "result-file",
			Usage: "Result file read from each git commit (default from config)",
		},
		&cli.StringFlag{
			Name:  "ref",
			Usage: "Git revision to walk from (default HEAD)",
		},
		&cli.BoolFlag{
			Name:  "no-stats",
			Usage: "Omit the series statistics",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Rebuild the dataset whenever a job history changes",
		},
		&cli.DurationFlag{
			Name:  "debounce",
			Usage: "Quiet period before a watched change triggers a rebuild",
			Value: watch.DefaultDebounce,
		},
	}
}

func datasetCmd() *cli.Command {
	return &cli.Command{
		Name:      "dataset",
		Aliases:   []string{"ds"},
		Usage:     "Build the trend dataset of one job",
		ArgsUsage: "[job-path]",
		Description: `Builds the dataset of one job from its run history. The graph
configuration selects the graph type, the window (last N builds or last N
days) and the axis (build numbers or dates).

Examples:
  trendline dataset jobs/core
  trendline dataset --graph '500!200!0!30!PRIORITY!1!!' jobs/core
  trendline dataset --source git --ref main -f json .
  trendline dataset --source git panbanda/ci-results@nightly
  trendline dataset --watch jobs/core`,
		Flags:  historyFlags(),
		Action: runDatasetCmd,
	}
}

func aggregateCmd() *cli.Command {
	flags := append(historyFlags(), &cli.StringFlag{
		Name:  "jobs-file",
		Usage: "YAML manifest listing the jobs (and optionally the graph)",
	})
	return &cli.Command{
		Name:      "aggregate",
		Aliases:   []string{"agg"},
		Usage:     "Sum the per-day series of several jobs",
		ArgsUsage: "[job-path...]",
		Description: `Builds one date-axis dataset with the combined totals of several jobs.
A job without a build on a date contributes its last known values.

Examples:
  trendline aggregate jobs/core jobs/web
  trendline aggregate --jobs-file jobs.yaml -f markdown`,
		Flags:  flags,
		Action: runAggregateCmd,
	}
}

// jobSpec builds the history spec of path from the history flags.
func jobSpec(c *cli.Context, path string) history.Spec {
	return history.Spec{
		Source:     history.Source(c.String("source")),
		Path:       path,
		ResultFile: c.String("result-file"),
		Ref:        c.String("ref"),
	}
}

// graphValue returns the serialized graph configuration given on the
// command line, reading --graph-json when set.
func graphValue(c *cli.Context, svc *dataset.Service) (string, error) {
	if path := c.String("graph-json"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		cfg := graph.New(svc.Config().Registry())
		if !cfg.InitializeFromJSON(data) {
			return "", fmt.Errorf("%s: invalid graph configuration", path)
		}
		return cfg.Serialize(), nil
	}
	return c.String("graph"), nil
}

func runDatasetCmd(c *cli.Context) error {
	if c.Args().Len() > 1 {
		return fmt.Errorf("dataset takes one job path, got %d (use aggregate for several jobs)", c.Args().Len())
	}
	path := c.Args().First()
	if path == "" {
		path = "."
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(c, cfg, c.String("output") == "" && cfg.Output.Format == "text")
	if err != nil {
		return err
	}
	value, err := graphValue(c, svc)
	if err != nil {
		return err
	}

	spec := jobSpec(c, path)
	render := func(ctx context.Context) error {
		res, err := svc.Dataset(ctx, spec, value)
		if err != nil {
			return err
		}
		return writeResult(c, cfg, res)
	}
	if err := render(commandContext(c, cfg)); err != nil {
		return err
	}
	if c.Bool("watch") {
		return watchJobs(c, cfg, svc, []history.Spec{spec}, render)
	}
	return nil
}

func runAggregateCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(c, cfg, c.String("output") == "" && cfg.Output.Format == "text")
	if err != nil {
		return err
	}
	value, err := graphValue(c, svc)
	if err != nil {
		return err
	}

	var specs []history.Spec
	if path := c.String("jobs-file"); path != "" {
		m, err := dataset.LoadManifest(path)
		if err != nil {
			return err
		}
		specs = append(specs, m.Jobs...)
		if value == "" {
			value = m.Graph
		}
	}
	for _, path := range c.Args().Slice() {
		specs = append(specs, jobSpec(c, path))
	}
	if len(specs) == 0 {
		return fmt.Errorf("%w: pass job paths or --jobs-file", dataset.ErrNoJobs)
	}

	render := func(ctx context.Context) error {
		res, err := svc.Aggregate(ctx, specs, value)
		if err != nil {
			return err
		}
		return writeResult(c, cfg, res)
	}
	if err := render(commandContext(c, cfg)); err != nil {
		return err
	}
	if c.Bool("watch") {
		return watchJobs(c, cfg, svc, specs, render)
	}
	return nil
}

func writeResult(c *cli.Context, cfg *config.Config, res *dataset.Result) error {
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	st := res.Stats
	if c.Bool("no-stats") {
		st = nil
	}
	view := output.NewDatasetView(res.Title(), res.Graph.Serialize(), res.Dataset, st)
	if err := formatter.Output(view); err != nil {
		return err
	}

	switch {
	case !res.Graph.IsVisible():
		fmt.Fprintln(c.App.ErrWriter, color.YellowString("Graph type %s plots no series", res.Graph.GraphType().ID))
	case formatter.Format() == output.FormatText && res.Dataset.IsEmpty():
		fmt.Fprintln(c.App.ErrWriter, color.YellowString("No runs in the selected window"))
	}
	return nil
}
