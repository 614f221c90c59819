package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that would make startup impossible.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.AdminPort < 1 || c.Server.AdminPort > 65535 {
		return fmt.Errorf("server.admin_port must be between 1 and 65535, got %d", c.Server.AdminPort)
	}
	if c.Server.Port == c.Server.AdminPort {
		return fmt.Errorf("server.port and server.admin_port must differ (both %d)", c.Server.Port)
	}

	if err := validateHTTPURL("existdb.url", c.ExistDB.URL); err != nil {
		return err
	}
	if c.ExistDB.User == "" {
		return fmt.Errorf("existdb.user is required")
	}

	if c.NLP.URL != "" {
		if err := validateHTTPURL("nlp.url", c.NLP.URL); err != nil {
			return err
		}
	}

	switch c.Retry.Backoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return fmt.Errorf("retry.backoff must be fixed, linear or exponential, got %q", c.Retry.Backoff)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}

	if c.Archive.Enabled && len(c.Archive.Collections) == 0 {
		return fmt.Errorf("archive.collections must list at least one collection when the archive is enabled")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	return nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
