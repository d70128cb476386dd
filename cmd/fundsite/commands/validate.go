package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/fundsite/internal/config"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/pipeline"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Output      string `short:"o" help:"Output directory to validate (overrides build.output_dir)"`
	WithContent bool   `name:"with-content" help:"Load the content snapshot so legacy alias pages are recognized"`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	loaded := err == nil
	if err != nil {
		if v.Output == "" {
			return err
		}
		slog.Debug("No usable configuration; validating with defaults", slog.String("error", err.Error()))
		cfg = config.Defaults()
	}
	if v.Output != "" {
		cfg.Build.OutputDir = v.Output
	}

	ctx := context.Background()
	opts := pipeline.ValidateOptions{
		Root:         cfg.Build.OutputDir,
		RichMinBytes: cfg.Validation.RichMinBytes,
		MinBytes:     cfg.Validation.MinBytes,
	}
	if loaded {
		opts.BaseURL = cfg.Site.BaseURL
	}
	if v.WithContent {
		set, err := discoverRoutes(ctx, cfg)
		if err != nil {
			return err
		}
		opts.Routes = set
	}

	l, err := pipeline.ValidateTree(ctx, opts)
	if err != nil {
		return err
	}
	for _, i := range l.Sorted() {
		fmt.Printf("%-7s %-24s %-10s %s: %s\n", i.Severity, i.Code, i.Source, i.Context, i.Message)
	}
	errs, warns := l.Counts()
	fmt.Printf("%d error(s), %d warning(s)\n", errs, warns)
	if errs > 0 {
		return foundationerrors.ValidationError(fmt.Sprintf("%d validation error(s)", errs)).
			WithContext("path", cfg.Build.OutputDir).Build()
	}
	return nil
}

func discoverRoutes(ctx context.Context, cfg *config.Config) (*routes.Set, error) {
	cache, closeFn, err := contentCache(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	snap, err := cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	set, _ := routes.Discover(snap)
	return set, nil
}
