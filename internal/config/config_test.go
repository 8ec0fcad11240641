// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "https://api-comexstat.mdic.gov.br" {
		t.Errorf("BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Queue.MinDelay != 500*time.Millisecond {
		t.Errorf("MinDelay = %v, want 500ms", cfg.Queue.MinDelay)
	}
	if cfg.Queue.WindowBudget != 30 {
		t.Errorf("WindowBudget = %d, want 30", cfg.Queue.WindowBudget)
	}
	if cfg.Cache.Capacity != 512 {
		t.Errorf("Capacity = %d, want 512", cfg.Cache.Capacity)
	}
	if cfg.Server.Port != 8780 {
		t.Errorf("Port = %d, want 8780", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COMEXBOARD_SERVER_PORT", "9000")
	t.Setenv("COMEXBOARD_QUEUE_WINDOW_BUDGET", "15")
	t.Setenv("COMEXBOARD_UPSTREAM_LANGUAGE", "en")
	t.Setenv("COMEXBOARD_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Queue.WindowBudget != 15 {
		t.Errorf("WindowBudget = %d, want 15", cfg.Queue.WindowBudget)
	}
	if cfg.Upstream.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Upstream.Language)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8088
queue:
  window_budget: 20
cache:
  ttl: 5m
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8088 {
		t.Errorf("Port = %d, want 8088", cfg.Server.Port)
	}
	if cfg.Queue.WindowBudget != 20 {
		t.Errorf("WindowBudget = %d, want 20", cfg.Queue.WindowBudget)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", cfg.Cache.TTL)
	}
	// Untouched keys keep their defaults.
	if cfg.Queue.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.Queue.MaxRetries)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8088\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("COMEXBOARD_SERVER_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Port = %d, environment must override the file", cfg.Server.Port)
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("COMEXBOARD_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"COMEXBOARD_SERVER_PORT", "server.port"},
		{"COMEXBOARD_QUEUE_WINDOW_BUDGET", "queue.window_budget"},
		{"COMEXBOARD_UPSTREAM_BASE_URL", "upstream.base_url"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Upstream.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Upstream.BaseURL = "not-a-url" }},
		{"ftp base url", func(c *Config) { c.Upstream.BaseURL = "ftp://example.com" }},
		{"zero min delay", func(c *Config) { c.Queue.MinDelay = 0 }},
		{"max below min", func(c *Config) { c.Queue.MaxDelay = c.Queue.MinDelay / 2 }},
		{"initial outside range", func(c *Config) { c.Queue.InitialDelay = c.Queue.MaxDelay * 2 }},
		{"zero window budget", func(c *Config) { c.Queue.WindowBudget = 0 }},
		{"negative retries", func(c *Config) { c.Queue.MaxRetries = -1 }},
		{"zero dispatch timeout", func(c *Config) { c.Queue.DispatchTimeout = 0 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"failure ratio above one", func(c *Config) { c.Upstream.BreakerFailureRatio = 1.5 }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want an error")
			}
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("default configuration should validate, got %v", err)
	}
}
