package market

import "strings"

// listedCEX are the centralized venues whose rows are kept from the markets table.
var listedCEX = []string{
	"Binance",
	"Bybit",
	"Bitget",
	"MEXC",
	"Gate.io",
	"KuCoin",
	"Crypto.com Exchange",
	"OKX",
}

// IsListedCEX reports whether an exchange label matches the CEX allow-list
// (case-insensitive substring, so "Binance TR" and "OKX" both count).
func IsListedCEX(exchange string) bool {
	name := strings.ToLower(strings.TrimSpace(exchange))
	if name == "" {
		return false
	}
	for _, cex := range listedCEX {
		if strings.Contains(name, strings.ToLower(cex)) {
			return true
		}
	}
	return false
}

// FilterListedCEX keeps allow-listed rows in their original order, truncated to limit.
func FilterListedCEX(rows []CEXMarket, limit int) []CEXMarket {
	out := make([]CEXMarket, 0, len(rows))
	for _, row := range rows {
		if !IsListedCEX(row.Exchange) {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
