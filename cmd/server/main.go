// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package main is the entry point for the Comexboard server.
//
// Comexboard serves a dashboard feed over the Comex Stat public
// foreign-trade statistics API. All upstream traffic flows through one
// rate-limited request queue with an adaptive inter-request delay, and
// every answer is cached so the dashboard stays responsive while the
// upstream is throttling.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     COMEXBOARD_-prefixed environment variables)
//  2. Logging: zerolog, console or JSON format
//  3. Pipeline: upstream client with circuit breaker, response cache,
//     request queue
//  4. Supervisor tree: cache janitor, queue worker, HTTP server
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// listener drains in-flight requests, the queue worker rejects pending
// submissions and the supervisor waits for every service to stop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/comexboard/comexboard/internal/api"
	"github.com/comexboard/comexboard/internal/cache"
	"github.com/comexboard/comexboard/internal/comex"
	"github.com/comexboard/comexboard/internal/config"
	"github.com/comexboard/comexboard/internal/logging"
	"github.com/comexboard/comexboard/internal/queue"
	"github.com/comexboard/comexboard/internal/supervisor"
	"github.com/comexboard/comexboard/internal/trade"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Dur("min_delay", cfg.Queue.MinDelay).
		Int("window_budget", cfg.Queue.WindowBudget).
		Int("cache_capacity", cfg.Cache.Capacity).
		Msg("Configuration loaded")

	client := comex.NewBreakerClient(&cfg.Upstream)
	responseCache := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL,
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval))
	requestQueue := queue.New(cfg.Queue, comex.IsRetryable)
	service := trade.New(client, responseCache, requestQueue)

	router := api.NewRouter(&cfg.Server, api.NewHandlers(service))
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddCacheService(responseCache)
	tree.AddPipelineService(requestQueue)
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Comexboard stopped gracefully")
}
