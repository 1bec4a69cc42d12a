package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.ImageDir == "" {
		return errors.New("paths.image_dir must be set")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	if err := validateBaseURL("mal.base_url", c.MAL.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("anilist.base_url", c.AniList.BaseURL); err != nil {
		return err
	}
	if c.MAL.SearchLimit < 1 || c.MAL.SearchLimit > 25 {
		return errors.New("mal.search_limit must be between 1 and 25")
	}
	if c.AniList.PerPage < 1 || c.AniList.PerPage > 50 {
		return errors.New("anilist.per_page must be between 1 and 50")
	}
	return nil
}

func validateBaseURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.MinScore < 0 || c.Matching.MinScore >= 100 {
		return errors.New("matching.min_score must be between 0 and 99")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RequestDelayMS < 0 {
		return errors.New("workflow.request_delay_ms must be >= 0")
	}
	if c.Workflow.DownloadWorkers < 1 {
		return errors.New("workflow.download_workers must be positive")
	}
	if c.Workflow.RequestTimeoutSeconds <= 0 {
		return errors.New("workflow.request_timeout_seconds must be positive")
	}
	if c.Workflow.MaxRetries < 0 {
		return errors.New("workflow.max_retries must be >= 0")
	}
	if c.Workflow.CacheTTLHours < 0 {
		return errors.New("workflow.cache_ttl_hours must be >= 0")
	}
	if c.Workflow.WatchDebounceSeconds < 0 {
		return errors.New("workflow.watch_debounce_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
