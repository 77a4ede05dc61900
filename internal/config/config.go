package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Logger holds the structured-logging configuration, read the way the
// teacher's internal/logger consumes it.
type Logger struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// Config is the root application configuration: an optional YAML file
// layered under environment-variable overrides (spec.md §6).
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`

	GitHubToken string `yaml:"github_token"`
	APIBaseURL  string `yaml:"api_base_url"`
	RawBaseURL  string `yaml:"raw_base_url"`
	OSVBaseURL  string `yaml:"osv_base_url"`

	// Provider selects the advisory provider strategy: "ghsa", "osv", or "all".
	Provider string `yaml:"provider"`

	// MaxDepth < 0 means unlimited (spec.md §4.7). MaxConcurrency bounds
	// the Walker's concurrent pipeline runs (spec.md §5).
	MaxDepth       int `yaml:"max_depth"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultRawBaseURL = "https://raw.githubusercontent.com"
	defaultOSVBaseURL = "https://api.osv.dev"
)

// Default returns the baseline configuration before any YAML file or
// environment override is applied.
func Default() *Config {
	return &Config{
		Logger:         Logger{Level: "info"},
		HTTPClient:     DefaultHTTPClient(),
		APIBaseURL:     defaultAPIBaseURL,
		RawBaseURL:     defaultRawBaseURL,
		OSVBaseURL:     defaultOSVBaseURL,
		Provider:       "all",
		MaxDepth:       -1,
		MaxConcurrency: 10,
	}
}

// Load builds a Config starting from Default, layering an optional YAML
// file at path (skipped entirely if path is empty or missing), then
// environment-variable overrides per spec.md §6.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	setFromEnv(&cfg.GitHubToken, "GITHUB_TOKEN")
	setFromEnv(&cfg.APIBaseURL, "GHSS_API_BASE_URL")
	setFromEnv(&cfg.RawBaseURL, "GHSS_RAW_BASE_URL")
	setFromEnv(&cfg.OSVBaseURL, "GHSS_OSV_BASE_URL")
	setFromEnv(&cfg.Logger.Level, "GHSS_LOG_LEVEL")
	setIntFromEnv(&cfg.MaxConcurrency, "GHSS_MAX_CONCURRENCY")
	setIntFromEnv(&cfg.MaxDepth, "GHSS_MAX_DEPTH")
}

func setFromEnv(field *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*field = v
	}
}

func setIntFromEnv(field *int, envVar string) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
		*field = n
	}
}
