package config

import (
	"runtime"
	"strings"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// Default values shared with the packages that consume them.
const (
	DefaultMaxURLsPerFile = 50000
	DefaultRichMinBytes   = 3000
	DefaultMinBytes       = 800
	DefaultMinBioLength   = 80
	DefaultNotifySubject  = "fundsite.builds"
)

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) error {
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	if cfg.Site.Name == "" {
		cfg.Site.Name = "Fund Directory"
	}
	return nil
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }

func (contentDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Source == "" {
		cfg.Content.Source = SourceYAML
	}
	if kind := contentSources.Normalize(string(cfg.Content.Source)); kind != "" {
		cfg.Content.Source = kind
	}
	if cfg.Content.Timeout <= 0 {
		cfg.Content.Timeout = 10 * time.Second
	}
	if cfg.Content.Retry.Backoff == "" {
		cfg.Content.Retry.Backoff = string(RetryBackoffExponential)
	}
	return nil
}

type buildDefaults struct{}

func (buildDefaults) Domain() string { return "build" }

func (buildDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Build.OutputDir == "" {
		cfg.Build.OutputDir = "./dist"
	}
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.NumCPU()
	}
	return nil
}

type sitemapDefaults struct{}

func (sitemapDefaults) Domain() string { return "sitemap" }

func (sitemapDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Sitemap.MaxURLsPerFile <= 0 || cfg.Sitemap.MaxURLsPerFile > DefaultMaxURLsPerFile {
		cfg.Sitemap.MaxURLsPerFile = DefaultMaxURLsPerFile
	}
	return nil
}

type validationDefaults struct{}

func (validationDefaults) Domain() string { return "validation" }

func (validationDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Validation.RichMinBytes <= 0 {
		cfg.Validation.RichMinBytes = DefaultRichMinBytes
	}
	if cfg.Validation.MinBytes <= 0 {
		cfg.Validation.MinBytes = DefaultMinBytes
	}
	if cfg.Team.MinBioLength <= 0 {
		cfg.Team.MinBioLength = DefaultMinBioLength
	}
	return nil
}

type runtimeDefaults struct{}

func (runtimeDefaults) Domain() string { return "runtime" }

func (runtimeDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Daemon.Debounce <= 0 {
		cfg.Daemon.Debounce = 2 * time.Second
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		siteDefaults{},
		contentDefaults{},
		buildDefaults{},
		sitemapDefaults{},
		validationDefaults{},
		runtimeDefaults{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Defaults returns a configuration populated only with defaults. Used by tests and
// by commands that operate without a config file.
func Defaults() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	return cfg
}
