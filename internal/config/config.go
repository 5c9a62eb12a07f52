// Package config loads the lighterdata YAML configuration and applies
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the lighterdata tools.
type Config struct {
	Storage Storage `yaml:"storage"`
	Lighter Lighter `yaml:"lighter"`
	Logging Logging `yaml:"logging"`
	Gather  Gather  `yaml:"gather"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Lighter holds settings for the zkLighter API client.
type Lighter struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Gather controls the market-data gathering job.
type Gather struct {
	Markets           []string `yaml:"markets"`
	CandleResolution  string   `yaml:"candle_resolution"`
	FundingResolution string   `yaml:"funding_resolution"`
	CountBack         int64    `yaml:"count_back"`
	RateLimitPerMin   int      `yaml:"rate_limit_per_min"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is given. The client
// base URL and timeout are left empty here so the lighter package applies
// its own defaults.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "data/lighter.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Gather: Gather{
			Markets:           []string{"1"},
			CandleResolution:  "1d",
			FundingResolution: "1h",
			CountBack:         10,
			RateLimitPerMin:   60,
		},
	}
}

// Load reads the YAML configuration file at the given path on top of the
// defaults and then applies environment variable overrides. An empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZKLIGHTER_BASE_URL"); v != "" {
		cfg.Lighter.BaseURL = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Lighter.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
