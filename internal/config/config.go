// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package config provides layered configuration for Comexboard using Koanf:
// struct defaults, optional YAML file, environment variable overrides.
package config

import (
	"time"
)

// Config is the root configuration for the Comexboard server.
type Config struct {
	Upstream UpstreamConfig `koanf:"upstream"`
	Queue    QueueConfig    `koanf:"queue"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// UpstreamConfig configures the Comex Stat API client.
type UpstreamConfig struct {
	// BaseURL is the API root, e.g. "https://api-comexstat.mdic.gov.br".
	BaseURL string `koanf:"base_url"`

	// Language is passed as the ?language= query parameter.
	Language string `koanf:"language"`

	// RequestTimeout is the wall-clock ceiling for a single upstream call,
	// including body read. Exceeding it counts as a retryable failure.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// Circuit breaker policy. The breaker opens when the failure ratio over
	// the measurement interval reaches BreakerFailureRatio with at least
	// BreakerMinRequests observed.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// QueueConfig configures the outbound request queue and rate limiter.
//
// The upstream rate limit is undocumented; every value here is empirically
// tuned policy, not contract. Operators should adjust against the live API
// rather than trusting the defaults.
type QueueConfig struct {
	// MinDelay and MaxDelay bound the adaptive inter-request delay. The delay
	// shrinks toward MinDelay after a run of successes and grows toward
	// MaxDelay after failures.
	MinDelay     time.Duration `koanf:"min_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
	InitialDelay time.Duration `koanf:"initial_delay"`

	// WindowBudget is the maximum number of dispatches within a rolling
	// WindowSize. When exhausted the worker sleeps until the window frees up;
	// requests are never dropped for budget reasons.
	WindowSize   time.Duration `koanf:"window_size"`
	WindowBudget int           `koanf:"window_budget"`

	// MaxRetries is the retry ceiling for retryable failures. A request is
	// attempted at most MaxRetries+1 times.
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`

	// DispatchTimeout is the wall-clock ceiling applied to each dispatch.
	// Exceeding it counts as a (retryable) failure and frees the worker.
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`

	// MaxPending bounds the number of queued requests across all priority
	// tiers. Submissions beyond it are rejected immediately.
	MaxPending int `koanf:"max_pending"`
}

// CacheConfig configures the in-memory response cache.
type CacheConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	Capacity        int           `koanf:"capacity"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// ServerConfig configures the HTTP server exposed to the dashboard.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed origins for the browser dashboard.
	CORSOrigins []string `koanf:"cors_origins"`

	// Per-IP rate limiting of our own API (httprate middleware).
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
