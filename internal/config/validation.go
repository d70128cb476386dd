package config

import (
	"net/url"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return foundationerrors.ConfigError("site.base_url is required").Build()
	}
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return foundationerrors.ConfigError("site.base_url must be an absolute http(s) URL").
			WithContext("base_url", c.Site.BaseURL).Build()
	}
	if u.Path != "" && u.Path != "/" {
		return foundationerrors.ConfigError("site.base_url must not contain a path").
			WithContext("base_url", c.Site.BaseURL).Build()
	}

	switch c.Content.Source {
	case SourceYAML, SourceSQLite:
		if c.Content.Path == "" {
			return foundationerrors.ConfigError("content.path is required for file-backed sources").
				WithContext("source", string(c.Content.Source)).Build()
		}
	case SourceHTTP:
		if c.Content.URL == "" {
			return foundationerrors.ConfigError("content.url is required for the http source").Build()
		}
	default:
		_, err := contentSources.NormalizeWithValidation(string(c.Content.Source))
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "unknown content.source").Fatal().
			WithContext("source", string(c.Content.Source)).
			WithContext("valid", contentSources.ValidValues()).Build()
	}
	if NormalizeRetryBackoff(c.Content.Retry.Backoff) == "" {
		return foundationerrors.ConfigError("unknown content.retry.backoff").
			WithContext("backoff", c.Content.Retry.Backoff).Build()
	}
	if c.Content.Retry.MaxRetries < 0 {
		return foundationerrors.ConfigError("content.retry.max_retries cannot be negative").Build()
	}
	return nil
}
