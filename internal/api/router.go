// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package api exposes the dashboard feed over HTTP with a chi router.
// Every endpoint answers the standard APIResponse envelope; upstream
// failures surface through the stable error code taxonomy in models.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comexboard/comexboard/internal/config"
	"github.com/comexboard/comexboard/internal/logging"
)

// NewRouter assembles the full route tree. Health and metrics sit outside
// the per-IP rate limit so probes and scrapes never get throttled.
func NewRouter(cfg *config.ServerConfig, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(requestLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag", "Retry-After", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			cfg.RateLimitReqs,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))

		r.Route("/trade", func(r chi.Router) {
			r.Get("/time-series", h.TimeSeries)
			r.Get("/top-products", h.TopProducts)
			r.Get("/top-states", h.TopStates)
			r.Get("/top-partners", h.TopPartners)
		})

		r.Route("/reference", func(r chi.Router) {
			r.Get("/years", h.ReferenceYears)
			r.Get("/filters", h.ReferenceFilters)
			r.Get("/metrics", h.ReferenceMetrics)
			r.Get("/tables/{table}", h.ReferenceTable)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.CacheStats)
			r.Post("/clear", h.CacheClear)
		})
	})

	return r
}

// requestLogging emits one structured line per request after it completes.
func requestLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logging.Debug().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", sanitizeLogValue(r.URL.Path)).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Msg("Request completed")
		})
	}
}
