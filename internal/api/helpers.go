// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/comexboard/comexboard/internal/logging"
	"github.com/comexboard/comexboard/internal/models"
	"github.com/comexboard/comexboard/internal/validation"
)

// sanitizeLogValue replaces control characters so attacker-controlled
// strings cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			b.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON sends the standard response envelope. Successful responses
// carry cache headers and a content-derived ETag; error envelopes are marked
// no-store so intermediaries never replay a failure.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if status < http.StatusBadRequest {
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("ETag", generateETag(data))
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag hashes the response body with FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

func respondError(w http.ResponseWriter, status int, apiErr *models.APIError, err error) {
	if err != nil {
		logging.Error().
			Str("code", apiErr.Code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}

// respondData wraps a payload in the envelope, switching the status field to
// "empty" when the query succeeded but matched no data.
func respondData(w http.ResponseWriter, data interface{}, empty, cached bool, started time.Time) {
	status := "success"
	if empty {
		status = "empty"
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: status,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(started).Milliseconds(),
			Cached:      cached,
		},
	})
}

func validateRequest(v interface{}) *models.APIError {
	if err := validation.Struct(v); err != nil {
		return err.ToAPIError()
	}
	return nil
}

// getIntParam extracts an integer query parameter, falling back to the
// default on absence or garbage.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}
