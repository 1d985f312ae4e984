package metrics

import (
	"encoding/csv"
	"io"
	"math"
	"strings"

	"opsboard/pkg/models"
)

// Column layout of the goals feed. Positional on purpose: the feed is
// an exported spreadsheet with no stable header names, so a reordered
// sheet produces wrong numbers rather than an error.
const (
	colTeam     = 0
	colNote     = 1
	colExpected = 2
	colActual   = 3
)

// Aggregate parses a raw CSV feed and returns the progress records for
// team, in feed order. The first row is a header and is discarded.
// Team matching is whitespace-trimmed and case-insensitive. Rows that
// fail to parse degrade to zero values; an empty result is not an
// error.
func Aggregate(csvText, team string) []models.ProgressRecord {
	target := strings.TrimSpace(team)

	r := csv.NewReader(strings.NewReader(csvText))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []models.ProgressRecord
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// keep whatever parsed so far; feed corruption is best-effort
			break
		}
		if header {
			header = false
			continue
		}

		if !strings.EqualFold(strings.TrimSpace(field(row, colTeam)), target) {
			continue
		}

		expected := ParseNumber(field(row, colExpected))
		actual := ParseNumber(field(row, colActual))

		out = append(out, models.ProgressRecord{
			Team:     team,
			Expected: expected,
			Actual:   actual,
			Percent:  percent(expected, actual),
			Note:     strings.TrimSpace(field(row, colNote)),
		})
	}

	return out
}

// percent applies the progress policy: against a real goal it is the
// plain ratio; with no goal but some output it counts as trivially met.
func percent(expected, actual float64) float64 {
	var p float64
	switch {
	case expected > 0:
		p = actual / expected * 100
	case actual > 0:
		p = 100
	}
	return math.Round(p*10) / 10
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
