package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/trendline/internal/ctxlog"
	"github.com/panbanda/trendline/internal/output"
	"github.com/panbanda/trendline/internal/service/dataset"
	"github.com/panbanda/trendline/pkg/config"
	"github.com/panbanda/trendline/pkg/trend"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "trendline",
		Usage:   "Trend datasets of static analysis results",
		Version: version,
		Description: `trendline reads the analysis results of every build of a job and turns
them into datasets for trend charts: per build, per day, or summed across
several jobs.

Histories are read from build record directories (<job>/builds/<n>/result.json)
or from the commits of a git repository.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"TRENDLINE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon, yaml (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable caching",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.StringFlag{
				Name:  "today",
				Usage: "Evaluate day windows as of this date (YYYY-MM-DD)",
			},
		},
		Commands: []*cli.Command{
			datasetCmd(),
			aggregateCmd(),
			graphCmd(),
			configCmd(),
			cacheCmd(),
			mcpCmd(),
		},
	}
}

// loadConfig loads the configuration named by --config, or searches the
// standard locations, and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}

	cfg := result.Config
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	if format := c.String("format"); format != "" {
		cfg.Output.Format = format
	}
	return cfg, nil
}

// commandContext returns the command's context carrying the logger.
func commandContext(c *cli.Context, cfg *config.Config) context.Context {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxlog.WithLogger(ctx, ctxlog.New(c.App.ErrWriter, cfg.Output.Verbose))
}

// todayFunc returns the clock used for day windows.
func todayFunc(c *cli.Context, cfg *config.Config) (func() time.Time, error) {
	value := c.String("today")
	if value == "" {
		return time.Now, nil
	}
	d, err := trend.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("--today: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	today := d.Midnight(loc)
	return func() time.Time { return today }, nil
}

func newService(c *cli.Context, cfg *config.Config, showProgress bool) (*dataset.Service, error) {
	today, err := todayFunc(c, cfg)
	if err != nil {
		return nil, err
	}
	return dataset.New(
		dataset.WithConfig(cfg),
		dataset.WithToday(today),
		dataset.WithProgress(showProgress),
	)
}

func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(cfg.Output.Format), c.String("output"), cfg.Output.Color)
}
