// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package normalize turns the loosely shaped row objects returned by the
// Comex Stat API into canonical records with a fixed schema. The upstream
// renames fields between releases and wraps the row array in several
// different envelopes, so both the container location and every column
// lookup go through ordered candidate tables.
package normalize

import (
	"sort"

	"github.com/comexboard/comexboard/internal/logging"
	"github.com/comexboard/comexboard/internal/metrics"
	"github.com/comexboard/comexboard/internal/models"
	"github.com/comexboard/comexboard/internal/parse"
)

// containerKeys are envelope keys known to hold the row array directly,
// tried after the documented data.list path.
var containerKeys = []string{"list", "rows", "items", "results", "records"}

// Records locates the row container inside an upstream response and
// normalizes every row it holds. Rows whose identity cannot be determined
// are logged and dropped; rows without a positive FOB value are dropped
// silently, since the upstream emits zero-value placeholder rows for
// periods with no trade.
func Records(resp *models.GeneralResponse, variant models.RecordVariant) []models.CanonicalRecord {
	rows := locateRows(resp.Data)
	out := make([]models.CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		rec, ok := normalizeRow(row, variant)
		if !ok {
			continue
		}
		out = append(out, rec)
		metrics.RecordsNormalized.WithLabelValues(string(variant)).Inc()
	}
	return out
}

// locateRows finds the array of row objects inside a decoded payload. The
// shapes seen in the wild, in rough order of frequency: a bare array, the
// documented {data:{list:[...]}} envelope, {data:[...]}, a top-level list
// key, and envelopes with a renamed container key. As a last resort every
// object-valued top-level field is scanned one level deep.
func locateRows(payload interface{}) []models.RawRecord {
	if arr, ok := payload.([]interface{}); ok {
		return toRecords(arr)
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}

	if data, ok := obj["data"].(map[string]interface{}); ok {
		if arr, ok := data["list"].([]interface{}); ok {
			return toRecords(arr)
		}
	}
	if arr, ok := obj["data"].([]interface{}); ok {
		return toRecords(arr)
	}
	for _, key := range containerKeys {
		if arr, ok := obj[key].([]interface{}); ok {
			return toRecords(arr)
		}
	}
	if data, ok := obj["data"].(map[string]interface{}); ok {
		if arr := scanForArray(data); arr != nil {
			return toRecords(arr)
		}
	}
	return toRecords(scanForArray(obj))
}

// scanForArray returns the first non-empty array found in obj, looking one
// level deep into object-valued fields. Keys are visited in sorted order so
// discovery is deterministic.
func scanForArray(obj map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if arr, ok := obj[key].([]interface{}); ok && len(arr) > 0 {
			return arr
		}
	}
	for _, key := range keys {
		nested, ok := obj[key].(map[string]interface{})
		if !ok {
			continue
		}
		nestedKeys := make([]string, 0, len(nested))
		for k := range nested {
			nestedKeys = append(nestedKeys, k)
		}
		sort.Strings(nestedKeys)
		for _, k := range nestedKeys {
			if arr, ok := nested[k].([]interface{}); ok && len(arr) > 0 {
				return arr
			}
		}
	}
	return nil
}

func toRecords(arr []interface{}) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, models.RawRecord(obj))
		}
	}
	return out
}

func normalizeRow(row models.RawRecord, variant models.RecordVariant) (models.CanonicalRecord, bool) {
	rec := models.CanonicalRecord{Variant: variant}

	if variant == models.VariantTimePeriod {
		period, ok := canonicalPeriod(row)
		if !ok {
			dropUnparseable(row, variant)
			return models.CanonicalRecord{}, false
		}
		rec.Period = period
	} else {
		fields := fieldTables[variant]
		code, ok := parse.Text(row, fields.code)
		if !ok {
			dropUnparseable(row, variant)
			return models.CanonicalRecord{}, false
		}
		rec.Code = code
		rec.Description = parse.TextOr(row, fields.desc, code)
		if period, ok := canonicalPeriod(row); ok {
			rec.Period = period
		}
	}

	fob, ok := parse.Number(row, fobCandidates)
	if !ok || fob <= 0 {
		metrics.RecordsDropped.WithLabelValues(string(variant), "non_positive_fob").Inc()
		return models.CanonicalRecord{}, false
	}
	rec.FOBValue = fob

	if kg := parse.NumberOr(row, kgCandidates, 0); kg > 0 {
		rec.WeightKg = kg
	}
	return rec, true
}

func dropUnparseable(row models.RawRecord, variant models.RecordVariant) {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	logging.Warn().
		Str("variant", string(variant)).
		Strs("fields", keys).
		Msg("Dropping upstream record with no recognizable identity field")
	metrics.RecordsDropped.WithLabelValues(string(variant), "unparseable").Inc()
}
