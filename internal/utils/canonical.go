package utils

import (
	"math"
	"strconv"
	"strings"
)

// Canonical normalizes one spreadsheet cell value for comparison, so that
// write/read round-trip artifacts (trailing zeros, decimal commas, stray
// spaces) do not register as diffs.
//
// Rules, in order: whitespace-only collapses to ""; otherwise internal
// spaces are stripped and decimal commas become dots before a numeric
// parse. Whole numbers render without a fractional part ("13.00" -> "13");
// other numbers keep up to 4 fractional digits with trailing zeros and a
// trailing dot stripped ("21.50000" -> "21.5"). Non-numeric values stay as
// their trimmed original.
func Canonical(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}

	n := strings.ReplaceAll(s, " ", "")
	n = strings.ReplaceAll(n, ",", ".")

	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}

	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	out := strconv.FormatFloat(f, 'f', 4, 64)
	out = strings.TrimRight(out, "0")
	return strings.TrimRight(out, ".")
}

// Same reports whether two raw cell values are equal after canonicalization.
func Same(a, b string) bool {
	return Canonical(a) == Canonical(b)
}
