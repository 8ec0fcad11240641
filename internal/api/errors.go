// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/comexboard/comexboard/internal/comex"
	"github.com/comexboard/comexboard/internal/models"
	"github.com/comexboard/comexboard/internal/queue"
)

// respondServiceError translates pipeline failures into the stable error
// taxonomy. Upstream rate limiting surfaces as 429 with a Retry-After so the
// dashboard can back off in sync with the queue.
func respondServiceError(w http.ResponseWriter, err error) {
	var rateLimited *comex.RateLimitedError
	if errors.As(err, &rateLimited) {
		retryAfter := rateLimited.RetryAfter
		if retryAfter <= 0 {
			retryAfter = 30 * time.Second
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondError(w, http.StatusTooManyRequests, &models.APIError{
			Code:    models.ErrCodeRateLimited,
			Message: "The statistics service is rate limiting requests, try again shortly",
		}, err)
		return
	}

	var badRequest *comex.BadRequestError
	if errors.As(err, &badRequest) {
		respondError(w, http.StatusBadRequest, &models.APIError{
			Code:    models.ErrCodeBadRequest,
			Message: "The statistics service rejected the query",
			Details: fmt.Sprintf("upstream status %d", badRequest.Status),
		}, err)
		return
	}

	switch {
	case errors.Is(err, queue.ErrDuplicate):
		respondError(w, http.StatusConflict, &models.APIError{
			Code:    models.ErrCodeDuplicate,
			Message: "An identical request is already in flight",
		}, nil)
	case errors.Is(err, queue.ErrFull):
		w.Header().Set("Retry-After", "10")
		respondError(w, http.StatusServiceUnavailable, &models.APIError{
			Code:    models.ErrCodeQueueFull,
			Message: "The request queue is full, try again shortly",
		}, nil)
	case errors.Is(err, queue.ErrCleared), errors.Is(err, queue.ErrStopped):
		respondError(w, http.StatusServiceUnavailable, &models.APIError{
			Code:    models.ErrCodeInternal,
			Message: "The request pipeline is not accepting work",
		}, err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, &models.APIError{
			Code:    models.ErrCodeTransient,
			Message: "The statistics service did not answer in time",
		}, err)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write, but finish the
		// exchange cleanly for middleware that records status codes.
		respondError(w, statusClientClosedRequest, &models.APIError{
			Code:    models.ErrCodeInternal,
			Message: "Request canceled",
		}, nil)
	default:
		var transient *comex.TransientError
		if errors.As(err, &transient) {
			respondError(w, http.StatusBadGateway, &models.APIError{
				Code:    models.ErrCodeTransient,
				Message: "The statistics service is temporarily unavailable",
			}, err)
			return
		}
		respondError(w, http.StatusInternalServerError, &models.APIError{
			Code:    models.ErrCodeInternal,
			Message: "Internal error",
		}, err)
	}
}

// statusClientClosedRequest is nginx's non-standard 499.
const statusClientClosedRequest = 499
