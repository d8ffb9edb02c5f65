package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for chartdeck.
type Config struct {
	Backend Backend `yaml:"backend"`
	Chart   Chart   `yaml:"chart"`
	Logging Logging `yaml:"logging"`
}

// Backend describes how to reach the scanner API.
type Backend struct {
	BaseURL        string `yaml:"base_url"`
	APIPrefix      string `yaml:"api_prefix"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Chart holds the startup state of the chart pane.
type Chart struct {
	DefaultTimeframe string `yaml:"default_timeframe"`
	VolumeVisible    bool   `yaml:"volume_visible"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and fills in defaults.
// A missing file is not an error: the defaults describe a scanner backend on
// localhost, which is the common case.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	if v := os.Getenv("BACKEND_TIMEOUT_SECONDS"); v != "" {
		var secs int
		if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
			cfg.Backend.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv("CHART_TIMEFRAME"); v != "" {
		cfg.Chart.DefaultTimeframe = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

// applyDefaults fills in any field that neither the file nor the environment
// provided.
func applyDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:8000"
	}
	if cfg.Backend.APIPrefix == "" {
		cfg.Backend.APIPrefix = "/api"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 10
	}
	if cfg.Chart.DefaultTimeframe == "" {
		cfg.Chart.DefaultTimeframe = "1D"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = "/tmp/chartdeck.log"
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be positive")
	}
	switch c.Chart.DefaultTimeframe {
	case "1D", "1W", "1M":
	default:
		return fmt.Errorf("chart.default_timeframe must be 1D, 1W or 1M, got %q", c.Chart.DefaultTimeframe)
	}
	return nil
}
