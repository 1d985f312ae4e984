package metrics

import (
	"strconv"
	"strings"
)

// ParseNumber converts a loosely formatted spreadsheet cell into a
// number. Empty cells yield 0. A decimal comma is accepted in place of
// a dot; currency symbols, thousands separators and stray whitespace
// are stripped. Anything that still fails to parse yields 0 — dirty
// feeds degrade row by row instead of failing the whole aggregation.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	s = strings.Replace(s, ",", ".", 1)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}
