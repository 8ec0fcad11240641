// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package normalize

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/comexboard/comexboard/internal/models"
)

// decode builds a GeneralResponse the way the client does: the whole body
// parked in Data.
func decode(t *testing.T, body string) *models.GeneralResponse {
	t.Helper()
	var payload interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return &models.GeneralResponse{Success: true, Data: payload}
}

func TestContainerDiscoveryEquivalence(t *testing.T) {
	row := `{"coNcm":"1001","noNcm":"Trigo","metricFOB":600}`
	shapes := []struct {
		name string
		body string
	}{
		{"bare array", `[` + row + `]`},
		{"data.list envelope", `{"data":{"list":[` + row + `]}}`},
		{"data array", `{"data":[` + row + `]}`},
		{"top-level list", `{"list":[` + row + `]}`},
		{"renamed container", `{"rows":[` + row + `]}`},
		{"nested scan fallback", `{"payload":{"registros":[` + row + `]}}`},
	}

	for _, tt := range shapes {
		t.Run(tt.name, func(t *testing.T) {
			records := Records(decode(t, tt.body), models.VariantProduct)
			if len(records) != 1 {
				t.Fatalf("Records() returned %d records, want 1", len(records))
			}
			rec := records[0]
			if rec.Code != "1001" || rec.Description != "Trigo" || rec.FOBValue != 600 {
				t.Errorf("record = %+v, want code 1001 / Trigo / 600", rec)
			}
		})
	}
}

func TestProductFieldFallback(t *testing.T) {
	// Numeric code, renamed FOB column, weight serialized as a Brazilian
	// decimal string.
	body := `{"data":{"list":[{"ncm":12019000,"descricao":"Soja","vlFob":"1.234,56","kgLiquido":"2.500,00"}]}}`
	records := Records(decode(t, body), models.VariantProduct)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Code != "12019000" {
		t.Errorf("Code = %q, want 12019000", rec.Code)
	}
	if rec.Description != "Soja" {
		t.Errorf("Description = %q, want Soja", rec.Description)
	}
	if rec.FOBValue != 1234.56 {
		t.Errorf("FOBValue = %v, want 1234.56", rec.FOBValue)
	}
	if rec.WeightKg != 2500 {
		t.Errorf("WeightKg = %v, want 2500", rec.WeightKg)
	}
}

func TestNullMetricFallsThroughToNextCandidate(t *testing.T) {
	body := `[{"coNcm":"1001","metricFOB":null,"vlFob":250}]`
	records := Records(decode(t, body), models.VariantProduct)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
	if records[0].FOBValue != 250 {
		t.Errorf("FOBValue = %v, want 250 via fallback candidate", records[0].FOBValue)
	}
}

func TestNonPositiveFOBDropped(t *testing.T) {
	body := `[
		{"coNcm":"1001","metricFOB":600},
		{"coNcm":"1002","metricFOB":0},
		{"coNcm":"1003","metricFOB":-40},
		{"coNcm":"1004"}
	]`
	records := Records(decode(t, body), models.VariantProduct)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1 (zero, negative and absent FOB dropped)", len(records))
	}
	if records[0].Code != "1001" {
		t.Errorf("surviving record = %q, want 1001", records[0].Code)
	}
}

func TestUnidentifiableRowDropped(t *testing.T) {
	body := `[{"mystery":"value","metricFOB":100},{"coNcm":"1001","metricFOB":100}]`
	records := Records(decode(t, body), models.VariantProduct)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
}

func TestDescriptionFallsBackToCode(t *testing.T) {
	body := `[{"coNcm":"1001","metricFOB":100}]`
	records := Records(decode(t, body), models.VariantProduct)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
	if records[0].Description != "1001" {
		t.Errorf("Description = %q, want the code as placeholder", records[0].Description)
	}
}

func TestNegativeWeightClampedToZero(t *testing.T) {
	body := `[{"coNcm":"1001","metricFOB":100,"metricKG":-5}]`
	records := Records(decode(t, body), models.VariantProduct)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
	if records[0].WeightKg != 0 {
		t.Errorf("WeightKg = %v, want 0 for a negative placeholder", records[0].WeightKg)
	}
}

func TestTimePeriodVariants(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"year month pair", `{"coAno":2022,"coMes":3,"metricFOB":10}`, "2022-03"},
		{"packed number", `{"coAnoMes":202212,"metricFOB":10}`, "2022-12"},
		{"packed string", `{"anoMes":"202207","metricFOB":10}`, "2022-07"},
		{"ready string", `{"period":"2022-03","metricFOB":10}`, "2022-03"},
		{"slash separator", `{"period":"2022/03","metricFOB":10}`, "2022-03"},
		{"year only", `{"coAno":2022,"metricFOB":10}`, "2022"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Records(decode(t, `[`+tt.row+`]`), models.VariantTimePeriod)
			if len(records) != 1 {
				t.Fatalf("Records() returned %d records, want 1", len(records))
			}
			if records[0].Period != tt.want {
				t.Errorf("Period = %q, want %q", records[0].Period, tt.want)
			}
		})
	}
}

func TestGeoVariant(t *testing.T) {
	body := `{"data":{"list":[{"noUf":"São Paulo","metricFOB":900,"metricKG":100}]}}`
	records := Records(decode(t, body), models.VariantGeo)
	if len(records) != 1 {
		t.Fatalf("Records() returned %d records, want 1", len(records))
	}
	if records[0].Code != "São Paulo" {
		t.Errorf("Code = %q, want São Paulo", records[0].Code)
	}
	if records[0].Key() != "São Paulo" {
		t.Errorf("Key() = %q, want São Paulo", records[0].Key())
	}
}

func TestEmptyAndUnusableContainers(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `{"data":{"list":[]}}`},
		{"no container", `{"data":{"count":0}}`},
		{"scalar payload", `42`},
		{"rows of scalars", `{"list":[1,2,3]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if records := Records(decode(t, tt.body), models.VariantProduct); len(records) != 0 {
				t.Errorf("Records() = %v, want none", records)
			}
		})
	}
}
