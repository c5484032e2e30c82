package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	def := Default()
	if cfg.ThreadTTL != def.ThreadTTL {
		t.Errorf("ThreadTTL = %v, want %v", cfg.ThreadTTL, def.ThreadTTL)
	}
	if cfg.BaseURL != def.BaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, def.BaseURL)
	}
	if cfg.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, path)
	}
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "base_url: http://localhost:4200\nthread_ttl: 2m\nfetch_concurrency: 8\ndebug: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.BaseURL != "http://localhost:4200" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:4200")
	}
	if cfg.ThreadTTL != 2*time.Minute {
		t.Errorf("ThreadTTL = %v, want %v", cfg.ThreadTTL, 2*time.Minute)
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency = %d, want %d", cfg.FetchConcurrency, 8)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("base_url: http://from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THREADLINE_BASE_URL", "http://from-env")
	t.Setenv("THREADLINE_MONITOR_INTERVAL", "15s")
	t.Setenv("THREADLINE_REQUESTS_PER_SECOND", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.BaseURL != "http://from-env" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://from-env")
	}
	if cfg.MonitorInterval != 15*time.Second {
		t.Errorf("MonitorInterval = %v, want %v", cfg.MonitorInterval, 15*time.Second)
	}
	if cfg.RequestsPerSecond != Default().RequestsPerSecond {
		t.Errorf("RequestsPerSecond = %v, want default on bad value", cfg.RequestsPerSecond)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("thread_ttl: [oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
	if !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("error = %v, want parsing config error", err)
	}
}

func TestLoad_EmptyBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("base_url: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
