// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package comex

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/comexboard/comexboard/internal/config"
	"github.com/comexboard/comexboard/internal/logging"
	"github.com/comexboard/comexboard/internal/metrics"
	"github.com/comexboard/comexboard/internal/models"
)

// BreakerClient wraps Client with a circuit breaker so a flapping or down
// upstream stops consuming queue dispatches (and window budget) quickly.
//
// A BadRequestError does not count as a breaker failure: it signals a caller
// mistake, not upstream health.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a Comex Stat client protected by a circuit
// breaker configured from cfg.
func NewBreakerClient(cfg *config.UpstreamConfig) *BreakerClient {
	cbName := "comex-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1, // single-flight upstream, single probe in half-open
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.BreakerFailureRatio
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var badRequest *BadRequestError
			return errors.As(err, &badRequest)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Warn().Str("from", fromStr).Str("to", toStr).Msg("upstream circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: NewClient(cfg),
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps one upstream call with circuit breaker protection. An open
// circuit is reported as a transient upstream error so the queue applies its
// normal retry/backoff policy.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}
	return result, nil
}

// castResult type-casts a breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("comex: unexpected breaker result type %T", result)
	}
	return typed, nil
}

// FetchGeneral issues POST /general with breaker protection.
func (bc *BreakerClient) FetchGeneral(ctx context.Context, query *models.GeneralRequest) (*models.GeneralResponse, error) {
	return castResult[models.GeneralResponse](bc.execute(func() (interface{}, error) {
		return bc.client.FetchGeneral(ctx, query)
	}))
}

// AvailableYears proxies Client.AvailableYears with breaker protection.
func (bc *BreakerClient) AvailableYears(ctx context.Context) (interface{}, error) {
	return bc.execute(func() (interface{}, error) { return bc.client.AvailableYears(ctx) })
}

// AvailableFilters proxies Client.AvailableFilters with breaker protection.
func (bc *BreakerClient) AvailableFilters(ctx context.Context) (interface{}, error) {
	return bc.execute(func() (interface{}, error) { return bc.client.AvailableFilters(ctx) })
}

// AvailableMetrics proxies Client.AvailableMetrics with breaker protection.
func (bc *BreakerClient) AvailableMetrics(ctx context.Context) (interface{}, error) {
	return bc.execute(func() (interface{}, error) { return bc.client.AvailableMetrics(ctx) })
}

// ReferenceTable proxies Client.ReferenceTable with breaker protection.
func (bc *BreakerClient) ReferenceTable(ctx context.Context, table string) (interface{}, error) {
	return bc.execute(func() (interface{}, error) { return bc.client.ReferenceTable(ctx, table) })
}

// stateToFloat converts a breaker state to its metric value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts a breaker state to its log label.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
