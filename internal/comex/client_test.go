// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package comex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/comexboard/comexboard/internal/config"
	"github.com/comexboard/comexboard/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.UpstreamConfig{
		BaseURL:        srv.URL,
		Language:       "pt",
		RequestTimeout: 5 * time.Second,
	}), srv
}

func exportQuery() *models.GeneralRequest {
	return &models.GeneralRequest{
		Flow:        models.FlowExport,
		MonthDetail: true,
		Period:      models.Period{From: "2024-01", To: "2024-06"},
		Metrics:     []string{models.MetricFOB, models.MetricKG},
	}
}

func TestFetchGeneralRequestShape(t *testing.T) {
	var gotMethod, gotPath, gotLanguage string
	var gotBody map[string]interface{}

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotLanguage = r.URL.Query().Get("language")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"list":[]}}`))
	})

	if _, err := client.FetchGeneral(context.Background(), exportQuery()); err != nil {
		t.Fatalf("FetchGeneral() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/general" {
		t.Errorf("path = %s, want /general", gotPath)
	}
	if gotLanguage != "pt" {
		t.Errorf("language = %s, want pt", gotLanguage)
	}
	if gotBody["flow"] != "export" {
		t.Errorf("body flow = %v, want export", gotBody["flow"])
	}

	// Optional keys the caller left empty must not be serialized at all;
	// the upstream rejects present-but-empty arrays.
	if _, present := gotBody["filters"]; present {
		t.Error("empty filters should be omitted from the request body")
	}
	if _, present := gotBody["details"]; present {
		t.Error("empty details should be omitted from the request body")
	}
}

func TestFetchGeneralEnvelope(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"ok","data":{"list":[{"coAno":2024}]}}`))
	})

	resp, err := client.FetchGeneral(context.Background(), exportQuery())
	if err != nil {
		t.Fatalf("FetchGeneral() error = %v", err)
	}
	if !resp.Success {
		t.Error("Success should be true")
	}
	if resp.Message != "ok" {
		t.Errorf("Message = %q, want %q", resp.Message, "ok")
	}
	obj, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data should hold the decoded body, got %T", resp.Data)
	}
	if _, ok := obj["data"]; !ok {
		t.Error("Data should preserve the full envelope for container discovery")
	}
}

func TestFetchGeneralBareArrayBody(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"coAno":2024,"metricFOB":100}]`))
	})

	resp, err := client.FetchGeneral(context.Background(), exportQuery())
	if err != nil {
		t.Fatalf("FetchGeneral() error = %v", err)
	}
	if !resp.Success {
		t.Error("bare array responses count as success")
	}
	if _, ok := resp.Data.([]interface{}); !ok {
		t.Errorf("Data should be the bare array, got %T", resp.Data)
	}
}

func TestFetchGeneralRateLimited(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchGeneral(context.Background(), exportQuery())
	var rateLimited *RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("error = %v, want RateLimitedError", err)
	}
	if rateLimited.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", rateLimited.RetryAfter)
	}
}

func TestFetchGeneralBadRequest(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid detail"}`))
	})

	_, err := client.FetchGeneral(context.Background(), exportQuery())
	var badRequest *BadRequestError
	if !errors.As(err, &badRequest) {
		t.Fatalf("error = %v, want BadRequestError", err)
	}
	if badRequest.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", badRequest.Status)
	}
	if !strings.Contains(badRequest.Body, "invalid detail") {
		t.Errorf("Body = %q, should carry the upstream diagnostics", badRequest.Body)
	}
}

func TestFetchGeneralServerError(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchGeneral(context.Background(), exportQuery())
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("error = %v, want TransientError", err)
	}
	if transient.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", transient.Status)
	}
}

func TestFetchGeneralNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(&config.UpstreamConfig{
		BaseURL:        srv.URL,
		Language:       "pt",
		RequestTimeout: 5 * time.Second,
	})
	srv.Close()

	_, err := client.FetchGeneral(context.Background(), exportQuery())
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("error = %v, want TransientError", err)
	}
	if transient.Status != 0 {
		t.Errorf("network failures should carry no HTTP status, got %d", transient.Status)
	}
}

func TestFetchGeneralGarbageBody(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.FetchGeneral(context.Background(), exportQuery())
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("error = %v, want TransientError for a garbled body", err)
	}
}

func TestPassthroughEndpoints(t *testing.T) {
	var gotPaths []string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		w.Write([]byte(`{"data":[2023,2024]}`))
	})

	ctx := context.Background()
	if _, err := client.AvailableYears(ctx); err != nil {
		t.Fatalf("AvailableYears() error = %v", err)
	}
	if _, err := client.AvailableFilters(ctx); err != nil {
		t.Fatalf("AvailableFilters() error = %v", err)
	}
	if _, err := client.AvailableMetrics(ctx); err != nil {
		t.Fatalf("AvailableMetrics() error = %v", err)
	}
	if _, err := client.ReferenceTable(ctx, "uf"); err != nil {
		t.Fatalf("ReferenceTable() error = %v", err)
	}

	want := []string{"/general/dates", "/general/filters", "/general/metrics", "/tables/uf"}
	for i, path := range want {
		if gotPaths[i] != path {
			t.Errorf("request %d path = %s, want %s", i, gotPaths[i], path)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{"0", 0},
		{"-5", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.input); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestReadBodyForErrorTruncates(t *testing.T) {
	huge := strings.NewReader(strings.Repeat("x", maxErrorBodySize*2))
	body := readBodyForError(huge)
	if len(body) > maxErrorBodySize+64 {
		t.Errorf("error body length = %d, should be capped near %d", len(body), maxErrorBodySize)
	}
}
