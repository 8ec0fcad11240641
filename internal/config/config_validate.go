// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and internally
// consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateUpstream,
		c.validateQueue,
		c.validateCache,
		c.validateServer,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateUpstream() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not a valid URL", c.Upstream.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("upstream.base_url must use http or https, got %q", u.Scheme)
	}
	if c.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("upstream.request_timeout must be positive")
	}
	if c.Upstream.BreakerFailureRatio <= 0 || c.Upstream.BreakerFailureRatio > 1 {
		return fmt.Errorf("upstream.breaker_failure_ratio must be in (0, 1], got %v", c.Upstream.BreakerFailureRatio)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.MinDelay <= 0 {
		return fmt.Errorf("queue.min_delay must be positive")
	}
	if c.Queue.MaxDelay < c.Queue.MinDelay {
		return fmt.Errorf("queue.max_delay (%v) must be >= queue.min_delay (%v)", c.Queue.MaxDelay, c.Queue.MinDelay)
	}
	if c.Queue.InitialDelay < c.Queue.MinDelay || c.Queue.InitialDelay > c.Queue.MaxDelay {
		return fmt.Errorf("queue.initial_delay (%v) must be within [min_delay, max_delay]", c.Queue.InitialDelay)
	}
	if c.Queue.WindowSize <= 0 || c.Queue.WindowBudget <= 0 {
		return fmt.Errorf("queue.window_size and queue.window_budget must be positive")
	}
	if c.Queue.MaxRetries < 0 {
		return fmt.Errorf("queue.max_retries must not be negative")
	}
	if c.Queue.RetryBaseDelay <= 0 {
		return fmt.Errorf("queue.retry_base_delay must be positive")
	}
	if c.Queue.DispatchTimeout <= 0 {
		return fmt.Errorf("queue.dispatch_timeout must be positive")
	}
	if c.Queue.MaxPending <= 0 {
		return fmt.Errorf("queue.max_pending must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
