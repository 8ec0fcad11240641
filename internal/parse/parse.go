// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package parse extracts typed values from loosely-typed upstream records.
//
// The Comex Stat API labels the same concept differently depending on the
// requested detail dimension (a trade value may arrive as "metricFOB",
// "vlFob", "fob" or "vl_fob"). Extraction therefore works from ordered
// candidate field-name lists: the first candidate that is present, non-null
// and coercible wins. All functions are pure and total - they return an
// explicit "absent" result instead of ever panicking or erroring.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/comexboard/comexboard/internal/models"
)

// Number returns the first numeric value found under the candidate field
// names, in order. A candidate that is present but null or non-coercible
// does not short-circuit the search; the next candidate is tried.
// Returns (0, false) when no candidate yields a value.
func Number(record models.RawRecord, candidates []string) (float64, bool) {
	for _, name := range candidates {
		value, exists := record[name]
		if !exists || value == nil {
			continue
		}
		if n, ok := CoerceNumber(value); ok {
			return n, true
		}
	}
	return 0, false
}

// Text returns the first non-empty string value found under the candidate
// field names, in order. Numeric values are formatted rather than rejected,
// since the upstream serializes some codes as JSON numbers.
// Returns ("", false) when no candidate yields a value.
func Text(record models.RawRecord, candidates []string) (string, bool) {
	for _, name := range candidates {
		value, exists := record[name]
		if !exists || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		case float64:
			// JSON numbers decode as float64; codes must not grow a ".0".
			if v == float64(int64(v)) {
				return strconv.FormatInt(int64(v), 10), true
			}
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case json.Number:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s, true
			}
		case int, int32, int64:
			return fmt.Sprintf("%d", v), true
		}
	}
	return "", false
}

// CoerceNumber converts an arbitrary JSON-decoded value to float64.
// String inputs tolerate currency noise and Brazilian decimal notation
// ("1.234,56"); characters other than digits, '.', ',' and '-' are stripped
// before parsing. Returns (0, false) for values that carry no number.
func CoerceNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		return coerceNumericString(v)
	default:
		return 0, false
	}
}

// coerceNumericString parses a numeric string that may carry grouping and
// locale noise. Decimal separator detection: when both '.' and ',' appear,
// whichever occurs last is the decimal separator and the other is grouping;
// a lone ',' is always a decimal separator.
func coerceNumericString(s string) (float64, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			// Multiple commas can only be grouping separators.
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	}

	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NumberOr returns the extracted number or the provided default when absent.
func NumberOr(record models.RawRecord, candidates []string, fallback float64) float64 {
	if n, ok := Number(record, candidates); ok {
		return n
	}
	return fallback
}

// TextOr returns the extracted text or the provided placeholder when absent.
func TextOr(record models.RawRecord, candidates []string, fallback string) string {
	if s, ok := Text(record, candidates); ok {
		return s
	}
	return fallback
}
