// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "empty": request completed but the period/filter combination has no
//     data; Data is an empty collection. This is deliberately distinct from
//     "error" so the dashboard can render a neutral no-data state instead of
//     an error banner.
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries observability fields attached to every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError describes a failed request. Code is one of the stable error codes
// below; Message is safe to display to the user.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Stable API error codes. The upstream error taxonomy (rate limited, bad
// request, transient) maps onto these so the dashboard can render
// kind-specific messaging.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeBadRequest  = "UPSTREAM_BAD_REQUEST"
	ErrCodeRateLimited = "UPSTREAM_RATE_LIMITED"
	ErrCodeTransient   = "UPSTREAM_UNAVAILABLE"
	ErrCodeDuplicate   = "DUPLICATE_REQUEST"
	ErrCodeQueueFull   = "QUEUE_FULL"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// CacheStats is the operator-facing snapshot returned by /cache/stats.
type CacheStats struct {
	Size      int      `json:"size"`
	Capacity  int      `json:"capacity"`
	Keys      []string `json:"keys"`
	Hits      int64    `json:"hits"`
	Misses    int64    `json:"misses"`
	Evictions int64    `json:"evictions"`
}
