// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package aggregate groups canonical trade records, sums their values and
// ranks the groups by total FOB value.
package aggregate

import (
	"sort"

	"github.com/comexboard/comexboard/internal/models"
)

// Rank groups records by their natural key, sums FOB and weight per group,
// computes each group's share of the grand total and returns the groups
// ordered by descending total FOB. Groups with equal totals keep their
// first-appearance order. When limit is positive the result is truncated to
// the top limit groups after shares are computed, so the shares of the
// surviving groups still refer to the full set.
func Rank(records []models.CanonicalRecord, limit int) []models.AggregatedEntry {
	if len(records) == 0 {
		return nil
	}

	index := make(map[string]int, len(records))
	entries := make([]models.AggregatedEntry, 0, len(records))
	var grandTotal float64

	for _, rec := range records {
		key := rec.Key()
		pos, ok := index[key]
		if !ok {
			pos = len(entries)
			index[key] = pos
			entries = append(entries, models.AggregatedEntry{
				Key:         key,
				Description: rec.Description,
			})
		}
		entries[pos].TotalFOB += rec.FOBValue
		entries[pos].TotalKg += rec.WeightKg
		grandTotal += rec.FOBValue
	}

	if grandTotal > 0 {
		for i := range entries {
			entries[i].SharePercent = entries[i].TotalFOB / grandTotal * 100
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalFOB > entries[j].TotalFOB
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

// TimeSeries groups time-period records into chronologically ordered points.
// Periods are "YYYY-MM" or "YYYY" strings, so lexicographic order is
// chronological order.
func TimeSeries(records []models.CanonicalRecord) []models.TimeSeriesPoint {
	if len(records) == 0 {
		return nil
	}

	index := make(map[string]int, len(records))
	points := make([]models.TimeSeriesPoint, 0, len(records))
	for _, rec := range records {
		pos, ok := index[rec.Period]
		if !ok {
			pos = len(points)
			index[rec.Period] = pos
			points = append(points, models.TimeSeriesPoint{Period: rec.Period})
		}
		points[pos].FOB += rec.FOBValue
		points[pos].Kg += rec.WeightKg
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}
