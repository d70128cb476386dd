package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/foundation/normalization"
)

// Config represents the application configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Content    ContentConfig    `yaml:"content"`
	Build      BuildConfig      `yaml:"build"`
	Sitemap    SitemapConfig    `yaml:"sitemap"`
	Validation ValidationConfig `yaml:"validation"`
	Team       TeamConfig       `yaml:"team"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Notify     NotifyConfig     `yaml:"notify"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// SiteConfig describes the public site the pages are rendered for.
type SiteConfig struct {
	BaseURL     string `yaml:"base_url"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// ContentSourceKind selects the content source adapter.
type ContentSourceKind string

const (
	SourceYAML   ContentSourceKind = "yaml"
	SourceSQLite ContentSourceKind = "sqlite"
	SourceHTTP   ContentSourceKind = "http"
)

var contentSources = normalization.NewEnumNormalizer("content.source", map[string]ContentSourceKind{
	"yaml":   SourceYAML,
	"yml":    SourceYAML,
	"sqlite": SourceSQLite,
	"http":   SourceHTTP,
}, "")

// ContentConfig configures where the content snapshot is fetched from.
type ContentConfig struct {
	Source  ContentSourceKind `yaml:"source"`
	Path    string            `yaml:"path,omitempty"` // yaml file or sqlite database
	URL     string            `yaml:"url,omitempty"`  // http source base URL
	Token   string            `yaml:"token,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Retry   RetryConfig       `yaml:"retry,omitempty"`
}

// RetryConfig holds raw retry settings; see retry.FromConfig.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff,omitempty"`
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
}

// BuildConfig controls the output tree.
type BuildConfig struct {
	OutputDir string `yaml:"output_dir"`
	AssetsDir string `yaml:"assets_dir,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
	Clean     *bool  `yaml:"clean,omitempty"`
}

// CleanOutput reports whether the output root is wiped before rendering (default true).
func (b BuildConfig) CleanOutput() bool { return b.Clean == nil || *b.Clean }

// SitemapConfig controls sitemap generation.
type SitemapConfig struct {
	MaxURLsPerFile int   `yaml:"max_urls_per_file,omitempty"`
	DiskAudit      *bool `yaml:"disk_audit,omitempty"`
	VerifyPass     *bool `yaml:"verify_pass,omitempty"`
}

// DiskAuditEnabled reports whether the output tree is walked for uncovered pages (default true).
func (s SitemapConfig) DiskAuditEnabled() bool { return s.DiskAudit == nil || *s.DiskAudit }

// VerifyPassEnabled reports whether the expected-URL verification pass runs (default true).
func (s SitemapConfig) VerifyPassEnabled() bool { return s.VerifyPass == nil || *s.VerifyPass }

// ValidationConfig holds HTML validator thresholds in bytes.
type ValidationConfig struct {
	RichMinBytes int `yaml:"rich_min_bytes,omitempty"`
	MinBytes     int `yaml:"min_bytes,omitempty"`
}

// TeamConfig holds team member indexability rules.
type TeamConfig struct {
	RemovedIDs   []string `yaml:"removed_ids,omitempty"`
	MinBioLength int      `yaml:"min_bio_length,omitempty"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig controls build-completed notifications over NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DaemonConfig controls the rebuild daemon.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	Watch    bool          `yaml:"watch,omitempty"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Load reads, env-expands, defaults and validates the configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes, expanding ${ENV} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundationerrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Site: SiteConfig{
			BaseURL:     "https://funds.example.com",
			Name:        "Fund Directory",
			Description: "Independent profiles of investment funds and their managers",
		},
		Content: ContentConfig{
			Source:  SourceYAML,
			Path:    "content.yaml",
			Timeout: 10 * time.Second,
			Retry:   RetryConfig{Backoff: string(RetryBackoffExponential), Initial: 200 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 3},
		},
		Build: BuildConfig{OutputDir: "./dist", Workers: 8},
		Team:  TeamConfig{MinBioLength: 80},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			Fatal().WithContext("path", configPath).Build()
	}
	return nil
}
