// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package models

// RecordVariant selects which canonical shape a normalization pass produces.
type RecordVariant string

// Canonical record variants. Each variant has its own upstream field-name
// candidate table in the normalize package.
const (
	VariantTimePeriod RecordVariant = "time_period"
	VariantProduct    RecordVariant = "product"
	VariantGeo        RecordVariant = "geo"
)

// CanonicalRecord is one normalized upstream row. Exactly one of the
// variant-specific identity fields is meaningful, selected by Variant:
// Period for time series, Code+Description for product and geographic rows.
//
// Invariants (enforced by the normalize package):
//   - FOBValue >= 0 and WeightKg >= 0
//   - rows with a non-positive FOB value are discarded before they reach here
type CanonicalRecord struct {
	Variant     RecordVariant `json:"variant"`
	Period      string        `json:"period,omitempty"` // YYYY-MM or YYYY
	Code        string        `json:"code,omitempty"`
	Description string        `json:"description,omitempty"`
	FOBValue    float64       `json:"fob"`
	WeightKg    float64       `json:"kg"`
}

// Key returns the variant's natural grouping key: the period for time-series
// records, the classification code otherwise.
func (r CanonicalRecord) Key() string {
	if r.Variant == VariantTimePeriod {
		return r.Period
	}
	return r.Code
}

// AggregatedEntry is one ranked group produced by the aggregate package.
//
// Invariants:
//   - the sum of TotalFOB over an untruncated set equals the sum of FOBValue
//     over the contributing canonical records
//   - SharePercent is computed against the grand total of the full set, so it
//     stays meaningful after top-N truncation
type AggregatedEntry struct {
	Key          string  `json:"key"`
	Description  string  `json:"description,omitempty"`
	TotalFOB     float64 `json:"totalFob"`
	TotalKg      float64 `json:"totalKg"`
	SharePercent float64 `json:"sharePercent"`
	Rank         int     `json:"rank"`
}

// TimeSeriesPoint is one point of the time-series feed exposed to the UI.
type TimeSeriesPoint struct {
	Period string  `json:"period"`
	FOB    float64 `json:"fob"`
	Kg     float64 `json:"kg"`
}
