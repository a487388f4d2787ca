package decision

import "github.com/johncarlocaintic/VictusGlobal/internal/pkg/convert"

// Verdict 是一次评估的唯一结论。
type Verdict string

const (
	VerdictRejected           Verdict = "Rejected"
	VerdictNoEligibleExchange Verdict = "NoEligibleExchange"
	VerdictTiered             Verdict = "Tiered"
)

// Venue records which side of the market produced the tier.
type Venue string

const (
	VenueDEX Venue = "dex"
	VenueCEX Venue = "cex"
)

// NoEligibleExchangeMessage is shown to the user verbatim when the token has no
// Tier-1/Tier-2 centralized listing.
const NoEligibleExchangeMessage = "the token i fetch doesnt exist in this following\n" +
	"Tier 1: Binance, Coinbase, OKX, Bybit, Gate, KuCoin, Kraken\n" +
	"Tier 2: BitMart, MEXC, Bitget, LBank, Coinstore, CoinEx,HTX,Weex\n\n" +
	"try again with another token"

// Tier 是投资档位，金额均为美元整数。
type Tier struct {
	Venue             Venue  `json:"venue"`
	Bucket            string `json:"bucket"`
	DailyMin          int64  `json:"daily_min"`
	DailyMax          int64  `json:"daily_max"`
	MinimumCommitment int64  `json:"minimum_commitment"`
	InvestmentAmount  int64  `json:"investment"`
}

// TierText is a Tier rendered in compact notation ("2.5K", "1M").
type TierText struct {
	DailyMin          string `json:"daily_min"`
	DailyMax          string `json:"daily_max"`
	MinimumCommitment string `json:"minimum_commitment"`
	InvestmentAmount  string `json:"investment"`
}

func (t Tier) Text() TierText {
	return TierText{
		DailyMin:          convert.FormatCompact(t.DailyMin),
		DailyMax:          convert.FormatCompact(t.DailyMax),
		MinimumCommitment: convert.FormatCompact(t.MinimumCommitment),
		InvestmentAmount:  convert.FormatCompact(t.InvestmentAmount),
	}
}

// InvestmentDecision is the immutable outcome of Evaluate. Tier is set only for
// VerdictTiered; Message only for VerdictNoEligibleExchange.
type InvestmentDecision struct {
	Verdict   Verdict  `json:"verdict"`
	Rationale []string `json:"rationale"`
	Tier      *Tier    `json:"tier,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func (d InvestmentDecision) Tiered() bool {
	return d.Verdict == VerdictTiered && d.Tier != nil
}
