// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package trade is the feed layer between the HTTP API and the upstream
// pipeline. Every operation follows the same path: answer from the response
// cache when possible, otherwise submit exactly one upstream fetch through
// the rate-limited queue, normalize and aggregate the rows, and cache the
// result. The cache key doubles as the queue's deduplication id, so two
// concurrent requests for the same query never cause two upstream calls.
package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/comexboard/comexboard/internal/aggregate"
	"github.com/comexboard/comexboard/internal/cache"
	"github.com/comexboard/comexboard/internal/comex"
	"github.com/comexboard/comexboard/internal/logging"
	"github.com/comexboard/comexboard/internal/models"
	"github.com/comexboard/comexboard/internal/normalize"
	"github.com/comexboard/comexboard/internal/queue"
)

// TimeSeriesResult is the outcome of a time-series query. Empty is set when
// the upstream answered successfully but produced no usable records, which
// is a normal outcome for periods before a series starts.
type TimeSeriesResult struct {
	Flow   models.Flow              `json:"flow"`
	Period models.Period            `json:"period"`
	Points []models.TimeSeriesPoint `json:"points"`
	Empty  bool                     `json:"empty"`
	Cached bool                     `json:"-"`
}

// RankingResult is the outcome of a top-N ranking query.
type RankingResult struct {
	Flow    models.Flow              `json:"flow"`
	Period  models.Period            `json:"period"`
	Detail  string                   `json:"detail"`
	Entries []models.AggregatedEntry `json:"entries"`
	Empty   bool                     `json:"empty"`
	Cached  bool                     `json:"-"`
}

// ReferenceResult wraps a passthrough reference payload.
type ReferenceResult struct {
	Data   interface{}
	Cached bool
}

// Service drives the fetch, normalize, aggregate pipeline.
type Service struct {
	client comex.ClientInterface
	cache  *cache.Cache
	queue  *queue.Queue
}

func New(client comex.ClientInterface, responseCache *cache.Cache, requestQueue *queue.Queue) *Service {
	return &Service{
		client: client,
		cache:  responseCache,
		queue:  requestQueue,
	}
}

// TimeSeries returns monthly FOB and weight totals for the flow over the
// period.
func (s *Service) TimeSeries(ctx context.Context, flow models.Flow, period models.Period) (*TimeSeriesResult, error) {
	query := &models.GeneralRequest{
		Flow:        flow,
		MonthDetail: true,
		Period:      period,
		Metrics:     []string{models.MetricFOB, models.MetricKG},
	}
	key := cache.GenerateKey("time_series", query)

	if hit, ok := s.cache.Get(key); ok {
		if result, ok := hit.(*TimeSeriesResult); ok {
			cached := *result
			cached.Cached = true
			return &cached, nil
		}
		// A foreign value under this key is treated as a miss.
		s.cache.Delete(key)
	}

	value, err := s.queue.Submit(ctx, key, queue.PriorityHigh, func(ctx context.Context) (interface{}, error) {
		resp, err := s.client.FetchGeneral(ctx, query)
		if err != nil {
			return nil, err
		}
		records := normalize.Records(resp, models.VariantTimePeriod)
		result := &TimeSeriesResult{
			Flow:   flow,
			Period: period,
			Points: aggregate.TimeSeries(records),
		}
		result.Empty = len(result.Points) == 0
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result, ok := value.(*TimeSeriesResult)
	if !ok {
		return nil, fmt.Errorf("trade: unexpected time series result type %T", value)
	}
	s.cache.Put(key, result)
	return result, nil
}

// TopProducts ranks NCM product codes by total FOB value.
func (s *Service) TopProducts(ctx context.Context, flow models.Flow, period models.Period, limit int) (*RankingResult, error) {
	return s.ranking(ctx, flow, period, models.DetailNCM, models.VariantProduct, limit)
}

// TopStates ranks Brazilian states of origin or destination.
func (s *Service) TopStates(ctx context.Context, flow models.Flow, period models.Period, limit int) (*RankingResult, error) {
	return s.ranking(ctx, flow, period, models.DetailState, models.VariantGeo, limit)
}

// TopPartners ranks trading partner countries.
func (s *Service) TopPartners(ctx context.Context, flow models.Flow, period models.Period, limit int) (*RankingResult, error) {
	return s.ranking(ctx, flow, period, models.DetailCountry, models.VariantGeo, limit)
}

func (s *Service) ranking(ctx context.Context, flow models.Flow, period models.Period, detail string, variant models.RecordVariant, limit int) (*RankingResult, error) {
	query := &models.GeneralRequest{
		Flow:    flow,
		Period:  period,
		Details: []string{detail},
		Metrics: []string{models.MetricFOB, models.MetricKG},
	}
	key := cache.GenerateKey("ranking_"+detail, query)

	if hit, ok := s.cache.Get(key); ok {
		if full, ok := hit.(*RankingResult); ok {
			return truncated(full, limit, true), nil
		}
		// A foreign value under this key is treated as a miss.
		s.cache.Delete(key)
	}

	value, err := s.queue.Submit(ctx, key, queue.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		resp, err := s.client.FetchGeneral(ctx, query)
		if err != nil {
			return nil, err
		}
		records := normalize.Records(resp, variant)
		result := &RankingResult{
			Flow:    flow,
			Period:  period,
			Detail:  detail,
			Entries: aggregate.Rank(records, 0),
		}
		result.Empty = len(result.Entries) == 0
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	// The cache holds the untruncated ranking so different limits for the
	// same query share one upstream fetch.
	full, ok := value.(*RankingResult)
	if !ok {
		return nil, fmt.Errorf("trade: unexpected ranking result type %T", value)
	}
	s.cache.Put(key, full)
	return truncated(full, limit, false), nil
}

// truncated copies a cached ranking down to the requested size. Shares and
// ranks were computed against the full set and are kept as is.
func truncated(full *RankingResult, limit int, cached bool) *RankingResult {
	result := *full
	result.Cached = cached
	if limit > 0 && limit < len(full.Entries) {
		result.Entries = full.Entries[:limit]
	}
	return &result
}

// Reference proxies a reference lookup through the low-priority queue tier
// with a long cache lifetime, since reference tables change rarely.
func (s *Service) Reference(ctx context.Context, kind, table string) (*ReferenceResult, error) {
	key := cache.GenerateKey("reference", map[string]string{"kind": kind, "table": table})
	if hit, ok := s.cache.Get(key); ok {
		return &ReferenceResult{Data: hit, Cached: true}, nil
	}

	value, err := s.queue.Submit(ctx, key, queue.PriorityLow, func(ctx context.Context) (interface{}, error) {
		switch kind {
		case "years":
			return s.client.AvailableYears(ctx)
		case "filters":
			return s.client.AvailableFilters(ctx)
		case "metrics":
			return s.client.AvailableMetrics(ctx)
		default:
			return s.client.ReferenceTable(ctx, table)
		}
	})
	if err != nil {
		return nil, err
	}

	s.cache.PutWithTTL(key, value, 6*time.Hour)
	return &ReferenceResult{Data: value}, nil
}

// CacheStats reports the response cache's current occupancy and counters.
func (s *Service) CacheStats() models.CacheStats {
	hits, misses, evictions, size := s.cache.Stats()
	return models.CacheStats{
		Size:      size,
		Capacity:  s.cache.Capacity(),
		Keys:      s.cache.Keys(),
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
	}
}

// ClearCache drops every cached response.
func (s *Service) ClearCache() {
	s.cache.Clear()
	logging.Info().Msg("Response cache cleared by operator request")
}

// QueueDepth reports how many requests are waiting or in flight.
func (s *Service) QueueDepth() int {
	return s.queue.Pending()
}

// CurrentDelay reports the queue's adaptive inter-request delay.
func (s *Service) CurrentDelay() time.Duration {
	return s.queue.Delay()
}
