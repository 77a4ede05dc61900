package config

import "time"

// HTTPClient holds the Resty client tuning knobs shared by the GitHub REST,
// GraphQL, raw-content, and advisory-provider HTTP calls.
type HTTPClient struct {
	RetryCount       int           `yaml:"retry_count"`
	RetryWaitTime    time.Duration `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration `yaml:"retry_max_wait_time"`
	Timeout          time.Duration `yaml:"timeout"`
	Debug            bool          `yaml:"debug"`
}

// DefaultHTTPClient returns the baseline HTTP tuning used when the config
// file or environment doesn't override it.
func DefaultHTTPClient() HTTPClient {
	return HTTPClient{
		RetryCount:       3,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          30 * time.Second,
		Debug:            false,
	}
}
