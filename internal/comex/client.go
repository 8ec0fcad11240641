// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package comex is the HTTP client for the Comex Stat public API.
//
// The client performs no schema validation of upstream payloads - the API's
// field names are not reliably documented, so responses are returned as loose
// envelopes for the normalize package to interpret. Its one hard job is
// outcome classification: every call resolves to a decoded payload or to
// exactly one of the typed error kinds in errors.go.
//
// All requests are expected to be executed through the request queue; the
// client itself performs no pacing or retries.
package comex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/comexboard/comexboard/internal/config"
	"github.com/comexboard/comexboard/internal/metrics"
	"github.com/comexboard/comexboard/internal/models"
)

// maxErrorBodySize caps how much of an upstream error body is read for
// diagnostics, preventing unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024

// ClientInterface is the gateway surface consumed by the trade service.
// It is implemented by Client and by BreakerClient.
type ClientInterface interface {
	FetchGeneral(ctx context.Context, req *models.GeneralRequest) (*models.GeneralResponse, error)
	AvailableYears(ctx context.Context) (interface{}, error)
	AvailableFilters(ctx context.Context) (interface{}, error)
	AvailableMetrics(ctx context.Context) (interface{}, error)
	ReferenceTable(ctx context.Context, table string) (interface{}, error)
}

// Client talks to the Comex Stat API over HTTP.
type Client struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewClient creates a Comex Stat client from configuration.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		language: cfg.Language,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// FetchGeneral issues POST /general with the given query. Optional body
// fields the caller left nil are omitted entirely; the upstream rejects
// requests carrying present-but-empty optional arrays.
func (c *Client) FetchGeneral(ctx context.Context, query *models.GeneralRequest) (*models.GeneralResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("comex: encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/general?language=%s", c.baseURL, c.language)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("comex: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues("general").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("general", "transient").Inc()
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, "general"); err != nil {
		return nil, err
	}

	// Decode into an untyped value first: the upstream sometimes answers
	// with a bare array instead of the documented envelope object.
	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.UpstreamRequests.WithLabelValues("general", "transient").Inc()
		return nil, &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	metrics.UpstreamRequests.WithLabelValues("general", "success").Inc()

	envelope := &models.GeneralResponse{Success: true, Data: payload}
	if obj, ok := payload.(map[string]interface{}); ok {
		if v, ok := obj["success"].(bool); ok {
			envelope.Success = v
		}
		if v, ok := obj["message"].(string); ok {
			envelope.Message = v
		}
	}
	return envelope, nil
}

// AvailableYears returns the years the upstream has data for.
func (c *Client) AvailableYears(ctx context.Context) (interface{}, error) {
	return c.getPassthrough(ctx, "/general/dates", "dates")
}

// AvailableFilters returns the filter dimensions the /general endpoint
// accepts.
func (c *Client) AvailableFilters(ctx context.Context) (interface{}, error) {
	return c.getPassthrough(ctx, "/general/filters", "filters")
}

// AvailableMetrics returns the metric names the /general endpoint accepts.
func (c *Client) AvailableMetrics(ctx context.Context) (interface{}, error) {
	return c.getPassthrough(ctx, "/general/metrics", "metrics")
}

// ReferenceTable returns a reference table (country codes, state codes, NCM
// chapters). The shape is small and fixed, so no normalization is applied.
func (c *Client) ReferenceTable(ctx context.Context, table string) (interface{}, error) {
	return c.getPassthrough(ctx, "/tables/"+table, "tables")
}

// getPassthrough performs a GET against an auxiliary endpoint and returns the
// decoded body as-is.
func (c *Client) getPassthrough(ctx context.Context, path, endpoint string) (interface{}, error) {
	reqURL := fmt.Sprintf("%s%s?language=%s", c.baseURL, path, c.language)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("comex: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transient").Inc()
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, endpoint); err != nil {
		return nil, err
	}

	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transient").Inc()
		return nil, &TransientError{Err: fmt.Errorf("decode response: %w", err)}
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
	return payload, nil
}

// classifyStatus maps an HTTP response onto the error taxonomy. Returns nil
// for 2xx.
func classifyStatus(resp *http.Response, endpoint string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "rate_limited").Inc()
		return &RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "bad_request").Inc()
		return &BadRequestError{
			Status: resp.StatusCode,
			Body:   string(readBodyForError(resp.Body)),
		}
	default:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transient").Inc()
		return &TransientError{Status: resp.StatusCode}
	}
}

// parseRetryAfter parses a Retry-After header given in seconds (RFC 6585).
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// readBodyForError reads at most maxErrorBodySize bytes of a response body
// for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
