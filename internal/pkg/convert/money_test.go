package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUSD(t *testing.T) {
	cases := map[string]int64{
		"$1.2B":          1_200_000_000,
		"$12.3M":         12_300_000,
		"1,234":          1234,
		"$850.5K":        850_500,
		"$2T":            2_000_000_000_000,
		"$5M":            5_000_000,
		"$300K":          300_000,
		"$1,234,567.89":  1_234_567,
		"$4.56M\n+3.21%": 4_560_000,
		"--":             0,
		"":               0,
		"N/A":            0,
		"1.2.3":          0,
		"$ 25,000":       25_000,
		"12.5 m":         12_500_000,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseUSD(raw), "ParseUSD(%q)", raw)
	}
}

func TestParseScore(t *testing.T) {
	assert.EqualValues(t, 700, ParseScore("700"))
	assert.EqualValues(t, 1024, ParseScore("1,024"))
	assert.EqualValues(t, 0, ParseScore("--"))
	assert.EqualValues(t, 0, ParseScore(""))
	assert.EqualValues(t, 0, ParseScore("n/a"))
	assert.EqualValues(t, 712, ParseScore(" 712.9 "))
}

func TestFormatCompact(t *testing.T) {
	cases := map[int64]string{
		500:     "500",
		1000:    "1K",
		2500:    "2.5K",
		40000:   "40K",
		250000:  "250K",
		1000000: "1M",
		3000000: "3M",
		0:       "0",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCompact(in), "FormatCompact(%d)", in)
	}
}

func TestFormatDollar(t *testing.T) {
	assert.Equal(t, "$0", FormatDollar(0))
	assert.Equal(t, "$999", FormatDollar(999))
	assert.Equal(t, "$1,000", FormatDollar(1000))
	assert.Equal(t, "$1,234,567", FormatDollar(1234567))
	assert.Equal(t, "-$25,000", FormatDollar(-25000))
}
