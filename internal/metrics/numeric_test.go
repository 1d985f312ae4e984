package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"plain integer", "42", 42},
		{"plain decimal", "1.5", 1.5},
		{"decimal comma", "1,5", 1.5},
		{"negative", "-3", -3},
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"garbage", "abc", 0},
		{"currency prefix", "$12.50", 12.5},
		{"currency comma", "€7,25", 7.25},
		{"percent suffix", "80%", 80},
		{"padded", "  19 ", 19},
		{"zero", "0", 0},
		{"dot and comma together degrades", "1.234,5", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseNumber(tc.in))
		})
	}
}
