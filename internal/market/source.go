package market

import (
	"context"
	"errors"
)

// DefaultCEXLimit is how many allow-listed CEX rows a provider keeps, ranked by liquidity score.
const DefaultCEXLimit = 3

// ErrSourceUnavailable is returned by a Source that cannot reach the listing site at all
// (browser failed to start, navigation timed out).
var ErrSourceUnavailable = errors.New("market source unavailable")

// Source yields the raw market records of one token from its listing pages.
// Implementations return display strings exactly as shown; parsing happens later.
type Source interface {
	// FetchCEXMarkets returns at most limit allow-listed CEX rows, highest liquidity score first.
	FetchCEXMarkets(ctx context.Context, slug string, limit int) ([]CEXMarket, error)

	// FetchTopDEX returns the single DEX pair with the highest liquidity score, or nil when
	// the token has no DEX listing.
	FetchTopDEX(ctx context.Context, slug string) (*DEXMarket, error)

	// FetchOverview returns the headline market-cap and 24h volume strings.
	FetchOverview(ctx context.Context, slug string) (Overview, error)

	Name() string
}
