package config

import (
	"fmt"
	"time"
)

// ValidateConfig checks that cfg's values are usable by the audit engine,
// the way the teacher's pkg/shared/config.ValidateConfig bounds-checks its
// HTTP/Git settings.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: configuration object is nil")
	}
	if err := validateHTTPClient(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("config: http_client directive is invalid: %w", err)
	}
	if cfg.MaxConcurrency <= 0 {
		return fmt.Errorf("config: max_concurrency must be positive, got %d", cfg.MaxConcurrency)
	}
	switch cfg.Provider {
	case "ghsa", "osv", "all":
	default:
		return fmt.Errorf("config: provider must be one of ghsa|osv|all, got %q", cfg.Provider)
	}
	return nil
}

func validateHTTPClient(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"retry_max_wait_time": httpConfig.RetryMaxWaitTime,
		"retry_wait_time":     httpConfig.RetryWaitTime,
		"timeout":             httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}
	return nil
}

func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}
