// Package decision classifies a market snapshot into an investment tier.
package decision

import (
	"fmt"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/market"
	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/convert"
)

// Engine is stateless; the zero value is ready to use.
type Engine struct{}

func (Engine) Evaluate(s market.Snapshot) InvestmentDecision {
	return Evaluate(s)
}

// Evaluate runs the eligibility gates and the venue tiering over s. It is total
// and deterministic: every snapshot yields exactly one verdict, and the rationale
// carries one entry per branch taken, in order.
func Evaluate(s market.Snapshot) InvestmentDecision {
	var r rationale

	marketCap := convert.ParseUSD(s.MarketCapRaw)
	if marketCap <= marketCapFloor {
		r.addf("Market cap: %d (raw: %s). Market cap is less than $1M. Skipping.", marketCap, s.MarketCapRaw)
		return r.reject()
	}
	r.addf("Market cap: %d (raw: %s)", marketCap, s.MarketCapRaw)

	volume := convert.ParseUSD(s.Volume24hRaw)
	if volume <= volumeFloor {
		r.addf("24h Volume: %d (raw: %s). 24h volume is less than $150K. Skipping.", volume, s.Volume24hRaw)
		return r.reject()
	}
	r.addf("24h Volume: %d (raw: %s)", volume, s.Volume24hRaw)

	eligible := tierMarkets(s.CEXMarkets)
	if len(eligible) == 0 {
		r.add("does cex exist? no")
		return InvestmentDecision{
			Verdict:   VerdictNoEligibleExchange,
			Rationale: r.entries,
			Message:   NoEligibleExchangeMessage,
		}
	}
	r.add("does cex exist? yes")

	if s.DEXMarket != nil {
		r.add("does dex exist? yes")
		return evaluateDEX(&r, s.DEXMarket)
	}
	r.add("does dex exist? no")
	return evaluateCEX(&r, eligible, volume)
}

func evaluateDEX(r *rationale, dex *market.DEXMarket) InvestmentDecision {
	raw := dex.FinalLiquidity
	liquidity := convert.ParseUSD(raw)
	if liquidity <= 0 {
		raw = dex.LiquidityScore
		liquidity = convert.ParseUSD(raw)
	}
	r.addf("DEX Liquidity: %d (raw: %s)", liquidity, strings.TrimSpace(raw))
	if liquidity <= dexFloor {
		r.addf("DEX liquidity is $25K or less. Skipping. (Liquidity: %d)", liquidity)
		return r.reject()
	}
	for _, b := range dexBuckets {
		if liquidity > b.lo && liquidity <= b.hi {
			label := b.label()
			r.addf("DEX liquidity %s. %s", label, b.tier.describe())
			return r.tiered(b.tier.tier(VenueDEX, label))
		}
	}
	r.add("No suitable investment found: no suitable tier for DEX liquidity.")
	return r.reject()
}

// evaluateCEX tiers on the eligible market with the highest liquidity score,
// paired with the overview 24h volume.
func evaluateCEX(r *rationale, eligible []market.CEXMarket, volume int64) InvestmentDecision {
	top := eligible[0]
	topScore := convert.ParseScore(top.LiquidityScore)
	for _, m := range eligible[1:] {
		if score := convert.ParseScore(m.LiquidityScore); score > topScore {
			top, topScore = m, score
		}
	}
	r.addf("CEX Volume: %d, CEX Liquidity: %d (%s)", volume, topScore, top.Exchange)
	for _, rule := range cexRules {
		if !rule.match(volume, topScore) {
			continue
		}
		if rule.tier == nil {
			r.addf("CEX %s. Skipping.", rule.label)
			return r.reject()
		}
		r.addf("CEX %s. %s", rule.label, rule.tier.describe())
		return r.tiered(rule.tier.tier(VenueCEX, rule.label))
	}
	r.add("No suitable investment found.")
	return r.reject()
}

func tierMarkets(markets []market.CEXMarket) []market.CEXMarket {
	var out []market.CEXMarket
	for _, m := range markets {
		if isTierExchange(m.Exchange) {
			out = append(out, m)
		}
	}
	return out
}

type rationale struct {
	entries []string
}

func (r *rationale) add(entry string) {
	r.entries = append(r.entries, entry)
}

func (r *rationale) addf(format string, args ...any) {
	r.add(fmt.Sprintf(format, args...))
}

func (r *rationale) reject() InvestmentDecision {
	return InvestmentDecision{Verdict: VerdictRejected, Rationale: r.entries}
}

func (r *rationale) tiered(t *Tier) InvestmentDecision {
	return InvestmentDecision{Verdict: VerdictTiered, Rationale: r.entries, Tier: t}
}
