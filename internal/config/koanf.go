// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/comexboard/config.yaml",
	"/etc/comexboard/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "COMEXBOARD_"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:             "https://api-comexstat.mdic.gov.br",
			Language:            "pt",
			RequestTimeout:      30 * time.Second,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      2 * time.Minute,
		},
		Queue: QueueConfig{
			// Empirically tuned against the undocumented upstream limit.
			MinDelay:        500 * time.Millisecond,
			MaxDelay:        8 * time.Second,
			InitialDelay:    time.Second,
			WindowSize:      time.Minute,
			WindowBudget:    30,
			MaxRetries:      3,
			RetryBaseDelay:  time.Second,
			RetryMaxDelay:   30 * time.Second,
			DispatchTimeout: 45 * time.Second,
			MaxPending:      256,
		},
		Cache: CacheConfig{
			TTL:             10 * time.Minute,
			Capacity:        512,
			CleanupInterval: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8780,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds configuration from layered sources:
//  1. Defaults: built-in values above
//  2. Config file: optional YAML (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables: COMEXBOARD_<SECTION>_<KEY>, highest priority
//
// Examples:
//   - COMEXBOARD_UPSTREAM_BASE_URL -> upstream.base_url
//   - COMEXBOARD_QUEUE_WINDOW_BUDGET -> queue.window_budget
//   - COMEXBOARD_SERVER_PORT -> server.port
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps COMEXBOARD_SECTION_SOME_KEY to section.some_key.
// Sections are single words, so only the first underscore becomes a dot.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as strings from environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
