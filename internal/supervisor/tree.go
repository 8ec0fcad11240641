// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package supervisor arranges the long-running parts of Comexboard under a
// suture supervisor tree. The tree has three layers: cache (the response
// cache janitor), pipeline (the upstream request queue worker) and api (the
// HTTP server). A crash in the pipeline layer restarts the queue worker
// without taking down the HTTP server, which keeps serving cached answers.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds the restart policy shared by every supervisor in the
// tree. Zero values fall back to suture's documented defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the supervisor hierarchy for the application.
type Tree struct {
	root     *suture.Supervisor
	cache    *suture.Supervisor
	pipeline *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewTree builds the three-layer tree. The sutureslog handler bridges
// suture's lifecycle events into the application's structured log.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// sutureslog's hook constructor has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("comexboard", rootSpec)
	cache := suture.New("cache-layer", childSpec)
	pipeline := suture.New("pipeline-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(cache)
	root.Add(pipeline)
	root.Add(api)

	return &Tree{
		root:     root,
		cache:    cache,
		pipeline: pipeline,
		api:      api,
		config:   config,
	}
}

// AddCacheService supervises a cache maintenance service.
func (t *Tree) AddCacheService(svc suture.Service) suture.ServiceToken {
	return t.cache.Add(svc)
}

// AddPipelineService supervises a queue worker.
func (t *Tree) AddPipelineService(svc suture.Service) suture.ServiceToken {
	return t.pipeline.Add(svc)
}

// AddAPIService supervises the HTTP server.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
