// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package models

// Flow is the trade direction of a query.
type Flow string

// Trade directions accepted by the Comex Stat API.
const (
	FlowExport Flow = "export"
	FlowImport Flow = "import"
)

// Valid reports whether the flow is one of the two accepted directions.
func (f Flow) Valid() bool {
	return f == FlowExport || f == FlowImport
}

// Detail dimensions accepted by the /general endpoint. The dimension selects
// which breakdown the response rows represent, and with it the (undocumented)
// field names the rows carry.
const (
	DetailNCM     = "ncm"
	DetailState   = "state"
	DetailCountry = "country"
)

// Metric names accepted by the /general endpoint.
const (
	MetricFOB       = "metricFOB"
	MetricKG        = "metricKG"
	MetricStatistic = "metricStatistic"
)

// Period is an inclusive year-month range. Both bounds use the YYYY-MM form.
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FilterClause restricts a /general query to specific values of one
// dimension (e.g. filter "state", values ["35"]).
type FilterClause struct {
	Filter string        `json:"filter"`
	Values []interface{} `json:"values"`
}

// GeneralRequest is the body of POST /general. Optional fields use omitempty
// deliberately: the upstream API misbehaves when optional keys are present
// but empty, so callers must leave unused fields nil rather than empty.
type GeneralRequest struct {
	Flow        Flow           `json:"flow"`
	MonthDetail bool           `json:"monthDetail"`
	Period      Period         `json:"period"`
	Details     []string       `json:"details,omitempty"`
	Filters     []FilterClause `json:"filters,omitempty"`
	Metrics     []string       `json:"metrics"`
}

// RawRecord is one untyped row as returned by the upstream API. No invariant
// holds beyond "is a map"; field names vary by detail dimension.
type RawRecord map[string]interface{}

// GeneralResponse is the envelope of a successful /general call. Data holds
// the entire JSON-decoded body because the upstream sometimes returns
// {success, data:{list:[...]}}, sometimes {list:[...]} and sometimes a bare
// array; the normalize package owns locating the row container inside it.
type GeneralResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}
