package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/trendline/internal/ctxlog"
	"github.com/panbanda/trendline/internal/remote"
	"github.com/panbanda/trendline/internal/service/dataset"
	"github.com/panbanda/trendline/internal/watch"
	"github.com/panbanda/trendline/pkg/config"
	"github.com/panbanda/trendline/pkg/history"
)

// watchJobs calls render every time one of the job histories changes, until
// interrupted.
func watchJobs(c *cli.Context, cfg *config.Config, svc *dataset.Service, specs []history.Spec, render func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(commandContext(c, cfg), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.NewWatcher(c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	log := ctxlog.FromContext(ctx)
	for _, spec := range svc.Resolve(specs) {
		if spec.Source == history.SourceGit && remote.IsRemote(spec.Path) {
			log.Warn("remote histories are not watched", "job", spec.Name())
			continue
		}
		if err := w.AddHistory(spec); err != nil {
			return fmt.Errorf("watch %s: %w", spec.Name(), err)
		}
	}

	errw := c.App.ErrWriter
	w.SetCallback(func(ctx context.Context, changed []string) {
		ctxlog.FromContext(ctx).Debug("history changed", "paths", changed)
		fmt.Fprintln(errw, color.CyanString("\n%d change(s) detected, rebuilding...", len(changed)))
		if err := render(ctx); err != nil {
			fmt.Fprintln(errw, color.RedString("Error: %v", err))
		}
	})

	fmt.Fprintln(errw, color.CyanString("Watching %d job histories (Ctrl+C to stop)", len(specs)))
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
