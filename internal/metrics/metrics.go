// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package metrics provides Prometheus instrumentation for the request
// pipeline: upstream calls, the request queue, the response cache and the
// circuit breaker. Collectors are registered through promauto at package
// load and exposed by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream API metrics

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comex_upstream_request_duration_seconds",
			Help:    "Duration of Comex Stat API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comex_upstream_requests_total",
			Help: "Total Comex Stat API requests by outcome",
		},
		[]string{"endpoint", "outcome"}, // "success", "rate_limited", "bad_request", "transient"
	)

	// Request queue metrics

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "comex_queue_depth",
			Help: "Current number of queued requests per priority tier",
		},
		[]string{"priority"},
	)

	QueueWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comex_queue_wait_duration_seconds",
			Help:    "Time requests spend queued before dispatch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	QueueRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comex_queue_retries_total",
			Help: "Total retry dispatches performed by the request queue",
		},
	)

	QueueRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comex_queue_rejected_total",
			Help: "Requests rejected without dispatch",
		},
		[]string{"reason"}, // "duplicate", "full", "cleared"
	)

	QueueInterRequestDelay = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comex_queue_inter_request_delay_seconds",
			Help: "Current adaptive inter-request delay",
		},
	)

	// Response cache metrics

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comex_cache_hits_total",
			Help: "Total response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comex_cache_misses_total",
			Help: "Total response cache misses",
		},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comex_cache_evictions_total",
			Help: "Total response cache evictions",
		},
		[]string{"reason"}, // "expired", "capacity", "clear"
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "comex_cache_entries",
			Help: "Current number of cached responses",
		},
	)

	// Normalization metrics

	RecordsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comex_records_normalized_total",
			Help: "Canonical records produced by normalization",
		},
		[]string{"variant"},
	)

	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comex_records_dropped_total",
			Help: "Upstream rows dropped during normalization",
		},
		[]string{"variant", "reason"}, // "unparseable", "non_positive_fob"
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "comex_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comex_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
