// Package convert turns the loosely formatted figures shown on listing pages
// into canonical integers, and back into the compact notation used in proposals.
package convert

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern captures the first number on the string plus an optional magnitude suffix.
var amountPattern = regexp.MustCompile(`([\d,.]+)\s*([TtBbMmKk]?)`)

var magnitudes = map[string]int32{
	"T": 12,
	"B": 9,
	"M": 6,
	"K": 3,
}

// ParseUSD converts "$1.2B", "$12,345", "850.5K" and similar display strings into
// whole US dollars. Anything it cannot read yields 0; it never fails.
func ParseUSD(raw string) int64 {
	raw = strings.ReplaceAll(raw, "$", "")
	raw = strings.ReplaceAll(raw, "\n", " ")
	if strings.TrimSpace(raw) == "" {
		return 0
	}
	m := amountPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	num := strings.ReplaceAll(m[1], ",", "")
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	if exp, ok := magnitudes[strings.ToUpper(m[2])]; ok {
		d = d.Shift(exp)
	}
	if d.IsNegative() {
		return 0
	}
	return d.IntPart()
}

// ParseScore reads a dimensionless liquidity score ("1,024", "--", "712").
func ParseScore(raw string) int64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || strings.Trim(raw, "-") == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	return d.IntPart()
}

// FormatCompact renders whole dollars as 500, 1K, 2.5K, 250K, 1M, 3M.
func FormatCompact(usd int64) string {
	v := decimal.NewFromInt(usd)
	abs := v.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.New(1, 9)):
		return v.Shift(-9).String() + "B"
	case abs.GreaterThanOrEqual(decimal.New(1, 6)):
		return v.Shift(-6).String() + "M"
	case abs.GreaterThanOrEqual(decimal.New(1, 3)):
		return v.Shift(-3).String() + "K"
	default:
		return v.String()
	}
}

// FormatDollar renders whole dollars with thousands separators, e.g. $1,234,567.
func FormatDollar(usd int64) string {
	sign := ""
	if usd < 0 {
		sign = "-"
		usd = -usd
	}
	digits := strconv.FormatInt(usd, 10)
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3 + 2)
	b.WriteString(sign)
	b.WriteString("$")
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(",")
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
