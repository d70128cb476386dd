package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/metrics"
	"git.home.luguber.info/inful/fundsite/internal/notify"
	"git.home.luguber.info/inful/fundsite/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides build.output_dir)"`
	Workers     int    `help:"Render worker count (overrides build.workers)"`
	NoDiskAudit bool   `name:"no-disk-audit" help:"Skip the output tree walk during sitemap generation"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := RunBuild(ctx, cfg, "")
	if report != nil {
		fmt.Println(report.Summary())
	}
	return err
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Build.OutputDir = b.Output
	}
	if b.Workers > 0 {
		cfg.Build.Workers = b.Workers
	}
	if b.NoDiskAudit {
		off := false
		cfg.Sitemap.DiskAudit = &off
	}
}

// RunBuild wires the content source, metrics and notifications into one
// pipeline run.
func RunBuild(ctx context.Context, cfg *config.Config, trigger string) (*pipeline.BuildReport, error) {
	cache, closeFn, err := contentCache(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	opts := []pipeline.Option{
		pipeline.WithContentDir(contentDir(cfg)),
		pipeline.WithTrigger(trigger),
	}
	if cfg.Metrics.Textfile != "" {
		opts = append(opts, pipeline.WithRecorder(metrics.NewPrometheusRecorder(prometheus.NewRegistry())))
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.Connect(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Build notifications disabled", slog.String("error", err.Error()))
		} else {
			defer pub.Close()
			opts = append(opts, pipeline.WithPublisher(pub))
		}
	}
	return pipeline.NewBuilder(cfg, cache, opts...).Build(ctx)
}
