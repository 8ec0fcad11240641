// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/comexboard/comexboard/internal/models"
	"github.com/comexboard/comexboard/internal/parse"
)

// canonicalPeriod extracts a record's period and renders it as "YYYY-MM",
// or "YYYY" when the row only carries a year. Upstream rows spell the
// period three ways: a ready string ("2022-03"), a packed number or string
// (202203), or a separate year/month pair.
func canonicalPeriod(row models.RawRecord) (string, bool) {
	if s, ok := parse.Text(row, periodCandidates); ok {
		if p, ok := parsePeriodString(s); ok {
			return p, true
		}
	}

	year, yearOK := parse.Number(row, yearCandidates)
	month, monthOK := parse.Number(row, monthCandidates)
	switch {
	case yearOK && monthOK && validYear(int(year)) && validMonth(int(month)):
		return fmt.Sprintf("%04d-%02d", int(year), int(month)), true
	case yearOK && validYear(int(year)):
		return fmt.Sprintf("%04d", int(year)), true
	}
	return "", false
}

// parsePeriodString accepts "YYYY-MM", "YYYY/MM", packed "YYYYMM" and bare
// "YYYY" spellings.
func parsePeriodString(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "/", "-"))
	switch {
	case len(s) == 7 && s[4] == '-':
		year, errY := strconv.Atoi(s[:4])
		month, errM := strconv.Atoi(s[5:])
		if errY == nil && errM == nil && validYear(year) && validMonth(month) {
			return fmt.Sprintf("%04d-%02d", year, month), true
		}
	case len(s) == 6:
		year, errY := strconv.Atoi(s[:4])
		month, errM := strconv.Atoi(s[4:])
		if errY == nil && errM == nil && validYear(year) && validMonth(month) {
			return fmt.Sprintf("%04d-%02d", year, month), true
		}
	case len(s) == 4:
		year, err := strconv.Atoi(s)
		if err == nil && validYear(year) {
			return s, true
		}
	}
	return "", false
}

func validYear(y int) bool  { return y >= 1900 && y <= 2100 }
func validMonth(m int) bool { return m >= 1 && m <= 12 }
