// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package normalize

import "github.com/comexboard/comexboard/internal/models"

// Candidate field names per logical column, ordered by how often each
// spelling has been observed in upstream payloads. The parse helpers walk
// these lists in order and take the first coercible value.
var (
	fobCandidates = []string{"metricFOB", "vlFob", "vlFobDolar", "VL_FOB", "fob", "valor"}
	kgCandidates  = []string{"metricKG", "kgLiquido", "vlPesoKgLiquido", "KG_LIQUIDO", "kg"}

	periodCandidates = []string{"period", "coAnoMes", "anoMes", "CO_ANO_MES", "yearMonth"}
	yearCandidates   = []string{"coAno", "year", "CO_ANO", "ano"}
	monthCandidates  = []string{"coMes", "monthNumber", "CO_MES", "mes"}

	productCodeCandidates = []string{"coNcm", "ncm", "CO_NCM", "coSh4", "coSh2"}
	productDescCandidates = []string{"noNcmpt", "noNcm", "description", "descricao", "noSh4Por", "noSh2Por"}

	geoCodeCandidates = []string{"noUf", "noPais", "coUf", "coPais", "NO_UF", "NO_PAIS", "state", "country"}
	geoDescCandidates = []string{"noUf", "noPais", "NO_UF", "NO_PAIS", "name"}
)

// variantFields binds a record variant to its identity candidate lists.
// FOB and weight columns share one table across variants.
type variantFields struct {
	code []string
	desc []string
}

var fieldTables = map[models.RecordVariant]variantFields{
	models.VariantTimePeriod: {code: periodCandidates},
	models.VariantProduct:    {code: productCodeCandidates, desc: productDescCandidates},
	models.VariantGeo:        {code: geoCodeCandidates, desc: geoDescCandidates},
}
