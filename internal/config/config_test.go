package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ZKLIGHTER_BASE_URL", "REQUEST_TIMEOUT", "DATA_DIR", "SQLITE_PATH", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	clearOverrides(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Storage.DataDir != "data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "data")
	}
	if cfg.Lighter.BaseURL != "" {
		t.Errorf("Lighter.BaseURL = %q, want empty (client applies its default)", cfg.Lighter.BaseURL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if len(cfg.Gather.Markets) != 1 || cfg.Gather.Markets[0] != "1" {
		t.Errorf("Gather.Markets = %v, want [1]", cfg.Gather.Markets)
	}
	if cfg.Gather.CountBack != 10 {
		t.Errorf("Gather.CountBack = %d, want 10", cfg.Gather.CountBack)
	}
}

func TestLoadFile(t *testing.T) {
	clearOverrides(t)

	yamlContent := []byte(`
storage:
  data_dir: "/tmp/lighter/data"
  sqlite_path: "/tmp/lighter/lighter.db"
lighter:
  base_url: "http://localhost:8080"
  timeout_seconds: 20
logging:
  level: "debug"
  format: "text"
gather:
  markets: ["1", "2", "7"]
  candle_resolution: "1h"
  funding_resolution: "1d"
  count_back: 500
  rate_limit_per_min: 120
`)

	path := filepath.Join(t.TempDir(), "lighter.yaml")
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/lighter/data" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Lighter.BaseURL != "http://localhost:8080" {
		t.Errorf("Lighter.BaseURL = %q", cfg.Lighter.BaseURL)
	}
	if cfg.Lighter.TimeoutSeconds != 20 {
		t.Errorf("Lighter.TimeoutSeconds = %d, want 20", cfg.Lighter.TimeoutSeconds)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if len(cfg.Gather.Markets) != 3 || cfg.Gather.Markets[2] != "7" {
		t.Errorf("Gather.Markets = %v", cfg.Gather.Markets)
	}
	if cfg.Gather.CandleResolution != "1h" || cfg.Gather.FundingResolution != "1d" {
		t.Errorf("resolutions = %q/%q", cfg.Gather.CandleResolution, cfg.Gather.FundingResolution)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearOverrides(t)
	t.Setenv("ZKLIGHTER_BASE_URL", "http://testnet.example")
	t.Setenv("REQUEST_TIMEOUT", "3")
	t.Setenv("DATA_DIR", "/override/data")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Lighter.BaseURL != "http://testnet.example" {
		t.Errorf("Lighter.BaseURL = %q", cfg.Lighter.BaseURL)
	}
	if cfg.Lighter.TimeoutSeconds != 3 {
		t.Errorf("Lighter.TimeoutSeconds = %d, want 3", cfg.Lighter.TimeoutSeconds)
	}
	if cfg.Storage.DataDir != "/override/data" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearOverrides(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
