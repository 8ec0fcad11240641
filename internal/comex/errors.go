// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package comex

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// The client surfaces a closed set of error kinds so callers can render
// kind-specific messaging and the request queue can classify retryability.
// These are the only hard errors the pipeline raises; parsing and
// normalization never throw.

// RateLimitedError reports an HTTP 429 from the upstream. Retryable.
type RateLimitedError struct {
	// RetryAfter is the upstream's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("comex: rate limited, retry after %s", e.RetryAfter)
	}
	return "comex: rate limited"
}

// BadRequestError reports a non-429 4xx. Not retryable: it almost always
// means the caller constructed an unsupported parameter, so the upstream
// body is carried for diagnosis.
type BadRequestError struct {
	Status int
	Body   string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("comex: bad request (HTTP %d): %s", e.Status, e.Body)
}

// TransientError reports a 5xx, a network failure or a timeout. Retryable.
type TransientError struct {
	Status int // zero for network-level failures
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("comex: upstream failure (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("comex: upstream unreachable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsRetryable reports whether err warrants an automatic retry: rate limiting,
// transient upstream failures, and dispatch timeouts.
func IsRetryable(err error) bool {
	var rateLimited *RateLimitedError
	var transient *TransientError
	switch {
	case errors.As(err, &rateLimited):
		return true
	case errors.As(err, &transient):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}
