package market

import "strings"

// CEXMarket is one centralized-exchange row from the markets table.
type CEXMarket struct {
	Exchange       string `json:"exchange"`
	Pair           string `json:"pair"`
	Price          string `json:"price"`
	Volume24h      string `json:"volume_24h"`
	LiquidityScore string `json:"liquidity"`
}

// DEXMarket is the top decentralized-exchange pair. FinalLiquidity is the dollar
// liquidity read from the pair page and may be empty or "N/A".
type DEXMarket struct {
	Exchange       string `json:"exchange"`
	Pair           string `json:"pair"`
	Price          string `json:"price"`
	Volume24h      string `json:"volume_24h"`
	LiquidityScore string `json:"liquidity"`
	FinalLiquidity string `json:"final_liquidity"`
}

// Overview holds the headline figures from the token page.
type Overview struct {
	MarketCap string `json:"market_cap"`
	Volume24h string `json:"volume_24h"`
}

// MarketData is the part of a snapshot produced by a Source; it is what gets cached.
type MarketData struct {
	CEX      []CEXMarket `json:"top_cex_market"`
	DEX      *DEXMarket  `json:"top_dex_market,omitempty"`
	Overview Overview    `json:"overview"`
}

// Identity describes the token itself, as resolved from the pricing API.
type Identity struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	ContractAddress string `json:"contract_address,omitempty"`
	Platform        string `json:"platform,omitempty"`
}

// Snapshot is everything the tier engine looks at for one request.
type Snapshot struct {
	TokenSlug       string      `json:"slug"`
	TokenName       string      `json:"name"`
	TokenSymbol     string      `json:"symbol"`
	ContractAddress string      `json:"contract_address,omitempty"`
	PlatformName    string      `json:"platform,omitempty"`
	MarketCapRaw    string      `json:"market_cap"`
	Volume24hRaw    string      `json:"volume_24h"`
	CEXMarkets      []CEXMarket `json:"top_cex_market"`
	DEXMarket       *DEXMarket  `json:"top_dex_market,omitempty"`
}

// NewSnapshot merges identity and market data. Missing identity fields fall back to the slug.
func NewSnapshot(slug string, id Identity, data MarketData) Snapshot {
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = slug
	}
	symbol := strings.TrimSpace(id.Symbol)
	if symbol == "" {
		symbol = strings.ToUpper(slug)
	}
	cex := make([]CEXMarket, len(data.CEX))
	copy(cex, data.CEX)
	var dex *DEXMarket
	if data.DEX != nil {
		d := *data.DEX
		dex = &d
	}
	return Snapshot{
		TokenSlug:       slug,
		TokenName:       name,
		TokenSymbol:     symbol,
		ContractAddress: strings.TrimSpace(id.ContractAddress),
		PlatformName:    strings.TrimSpace(id.Platform),
		MarketCapRaw:    data.Overview.MarketCap,
		Volume24hRaw:    data.Overview.Volume24h,
		CEXMarkets:      cex,
		DEXMarket:       dex,
	}
}
