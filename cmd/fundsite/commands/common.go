package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/content/httpsource"
	"git.home.luguber.info/inful/fundsite/internal/content/sqlitesource"
	"git.home.luguber.info/inful/fundsite/internal/content/yamlsource"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/retry"
)

// LogLevelEnv overrides the log level when -v is not given.
const LogLevelEnv = "FUNDSITE_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"fundsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site, sitemaps and robots.txt, then validate the output"`
	Validate ValidateCmd `cmd:"" help:"Validate an existing output tree without rebuilding"`
	Import   ImportCmd   `cmd:"" help:"Seed a SQLite content database from a YAML snapshot"`
	Daemon   DaemonCmd   `cmd:"" help:"Rebuild on an interval and whenever content changes"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := config.NormalizeLogLevel(os.Getenv(LogLevelEnv)).SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// contentSource opens the configured content adapter. close releases it.
func contentSource(cfg *config.Config) (src content.Source, closeFn func(), err error) {
	switch cfg.Content.Source {
	case config.SourceSQLite:
		st, err := sqlitesource.Open(cfg.Content.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case config.SourceHTTP:
		return httpsource.New(cfg.Content.URL,
			httpsource.WithToken(cfg.Content.Token),
			httpsource.WithTimeout(cfg.Content.Timeout)), func() {}, nil
	case config.SourceYAML, "":
		return yamlsource.New(cfg.Content.Path), func() {}, nil
	default:
		return nil, nil, foundationerrors.ConfigError("unknown content source").
			WithContext("source", string(cfg.Content.Source)).Build()
	}
}

// contentCache wraps the configured source in a per-build snapshot cache.
func contentCache(cfg *config.Config) (*content.Cache, func(), error) {
	src, closeFn, err := contentSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	return content.NewCache(src, retry.FromConfig(cfg.Content.Retry)), closeFn, nil
}

// contentDir is the directory whose git revision is recorded, or "" for
// remote sources.
func contentDir(cfg *config.Config) string {
	if cfg.Content.Source == config.SourceHTTP || cfg.Content.Path == "" {
		return ""
	}
	return filepath.Dir(cfg.Content.Path)
}
