// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

/*
Package models defines the shared data types of the Comexboard core.

The package contains three groups of types:

  - Upstream types: the request body and response envelope exchanged with the
    Comex Stat /general endpoint. The response envelope is deliberately loose
    (RawRecord is an untyped map) because the upstream field names are not
    contractually stable across detail dimensions.
  - Canonical types: the schema-stable records produced by normalization
    (TimePeriodRecord, ProductRecord, GeoRecord) and the ranked aggregation
    output (AggregatedEntry).
  - API types: the standardized response wrapper returned by every HTTP
    endpoint of this service.

Types here carry no behavior beyond trivial accessors; all parsing,
normalization and aggregation logic lives in the parse, normalize and
aggregate packages.
*/
package models
