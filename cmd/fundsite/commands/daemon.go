package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Output string `short:"o" help:"Output directory (overrides build.output_dir)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if d.Output != "" {
		cfg.Build.OutputDir = d.Output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := daemon.Options{Interval: cfg.Daemon.Interval, Debounce: cfg.Daemon.Debounce}
	if cfg.Daemon.Watch && cfg.Content.Source != config.SourceHTTP {
		opts.WatchPath = cfg.Content.Path
	}
	dm, err := daemon.New(opts, func(ctx context.Context, trigger string) error {
		report, err := RunBuild(ctx, cfg, trigger)
		if report != nil {
			slog.Info(report.Summary())
		}
		return err
	})
	if err != nil {
		return err
	}
	return dm.Run(ctx)
}
