// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package api

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/comexboard/comexboard/internal/models"
	"github.com/comexboard/comexboard/internal/trade"
)

const defaultRankingLimit = 10

// tablePattern restricts reference table names to safe path segments.
var tablePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Handlers owns the HTTP endpoints of the dashboard feed.
type Handlers struct {
	service *trade.Service
	started time.Time
}

func NewHandlers(service *trade.Service) *Handlers {
	return &Handlers{
		service: service,
		started: time.Now(),
	}
}

// tradeQuery is the validated shape shared by the trade endpoints.
type tradeQuery struct {
	Flow  string `validate:"required,oneof=export import"`
	From  string `validate:"required,period"`
	To    string `validate:"required,period"`
	Limit int    `validate:"gte=1,lte=100"`
}

func parseTradeQuery(r *http.Request) (tradeQuery, *models.APIError) {
	q := tradeQuery{
		Flow:  r.URL.Query().Get("flow"),
		From:  r.URL.Query().Get("from"),
		To:    r.URL.Query().Get("to"),
		Limit: getIntParam(r, "limit", defaultRankingLimit),
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		return tradeQuery{}, apiErr
	}
	return q, nil
}

func (q tradeQuery) period() models.Period {
	return models.Period{From: q.From, To: q.To}
}

// TimeSeries serves GET /api/v1/trade/time-series.
func (h *Handlers) TimeSeries(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	q, apiErr := parseTradeQuery(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	result, err := h.service.TimeSeries(r.Context(), models.Flow(q.Flow), q.period())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondData(w, result, result.Empty, result.Cached, started)
}

// TopProducts serves GET /api/v1/trade/top-products.
func (h *Handlers) TopProducts(w http.ResponseWriter, r *http.Request) {
	h.ranking(w, r, h.service.TopProducts)
}

// TopStates serves GET /api/v1/trade/top-states.
func (h *Handlers) TopStates(w http.ResponseWriter, r *http.Request) {
	h.ranking(w, r, h.service.TopStates)
}

// TopPartners serves GET /api/v1/trade/top-partners.
func (h *Handlers) TopPartners(w http.ResponseWriter, r *http.Request) {
	h.ranking(w, r, h.service.TopPartners)
}

type rankingFunc func(ctx context.Context, flow models.Flow, period models.Period, limit int) (*trade.RankingResult, error)

func (h *Handlers) ranking(w http.ResponseWriter, r *http.Request, fetch rankingFunc) {
	started := time.Now()
	q, apiErr := parseTradeQuery(r)
	if apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	result, err := fetch(r.Context(), models.Flow(q.Flow), q.period(), q.Limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondData(w, result, result.Empty, result.Cached, started)
}

// ReferenceYears serves GET /api/v1/reference/years.
func (h *Handlers) ReferenceYears(w http.ResponseWriter, r *http.Request) {
	h.reference(w, r, "years", "")
}

// ReferenceFilters serves GET /api/v1/reference/filters.
func (h *Handlers) ReferenceFilters(w http.ResponseWriter, r *http.Request) {
	h.reference(w, r, "filters", "")
}

// ReferenceMetrics serves GET /api/v1/reference/metrics.
func (h *Handlers) ReferenceMetrics(w http.ResponseWriter, r *http.Request) {
	h.reference(w, r, "metrics", "")
}

// ReferenceTable serves GET /api/v1/reference/tables/{table}.
func (h *Handlers) ReferenceTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if !tablePattern.MatchString(table) {
		respondError(w, http.StatusBadRequest, &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: "table must contain only letters, digits, hyphen and underscore",
		}, nil)
		return
	}
	h.reference(w, r, "table", table)
}

func (h *Handlers) reference(w http.ResponseWriter, r *http.Request, kind, table string) {
	started := time.Now()
	result, err := h.service.Reference(r.Context(), kind, table)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondData(w, result.Data, result.Data == nil, result.Cached, started)
}

// CacheStats serves GET /api/v1/cache/stats.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	respondData(w, h.service.CacheStats(), false, false, started)
}

// CacheClear serves POST /api/v1/cache/clear.
func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	h.service.ClearCache()
	respondData(w, map[string]string{"status": "cleared"}, false, false, started)
}

// HealthLive answers liveness probes.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "alive"},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady answers readiness probes with pipeline vitals.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":         "ready",
			"uptime_seconds": int64(time.Since(h.started).Seconds()),
			"queue_depth":    h.service.QueueDepth(),
			"queue_delay_ms": h.service.CurrentDelay().Milliseconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
