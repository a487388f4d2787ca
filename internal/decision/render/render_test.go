package render

import (
	"strings"
	"testing"

	"github.com/johncarlocaintic/VictusGlobal/internal/decision"

	"github.com/stretchr/testify/assert"
)

const wantAvalancheProposal = `📄 PROPOSAL FORMAT:

Investment Proposal - Avalanche

Investment: $1M
Minimum commitment: $800K
Discount: 22%
Trial period: 2 weeks.

Investment will be made in daily transactions of $10K total per day, then
increase to $10K - $25K per day after trial period. Price will be determined using the current,
daily market price at the time of transaction/ event.

✅ Meet our team, review testimonials &amp; explore our value proposition

• Strategic business partnership support
• $1B+ Network Ecosystem
• Marketing &amp; Elite KOL Exposure
• Connect with our CEXs partners for fast listings &amp; discounts
• Test our professional MM service (with a limited-time 7-day free trial)
• Smart contract &amp; Security audits
• Full-Cycle Support

Market-Making Service – 7-Day Trial
To ensure strong market positioning from the start, we provide a complimentary 7-day trial of our
professional market-making service. This includes enhanced liquidity management, optimized
order book depth, and improved trading efficiency to maximize your asset's market
performance.

Join 80+ other portfolio companies in the Victus Global network, including Pepecoin, Netmind,
Brett, Unizen, Dynex, and many more.

🔹Learn more with our Deck
https://docsend.com/view/rz6cwzaem4qj2ihi

🔹Visit our Website
https://coinmarketcap.com/currencies/avalanche-2/

🔹Follow us on X
https://x.com/VictusGlobal_

https://coinmarketcap.com/currencies/avalanche-2/
`

func TestProposal_Exact(t *testing.T) {
	tier := decision.Tier{DailyMin: 10_000, DailyMax: 25_000, MinimumCommitment: 800_000, InvestmentAmount: 1_000_000}
	got := Proposal(NewProposalData("Avalanche", "avalanche-2", tier))
	assert.Equal(t, wantAvalancheProposal, got)
}

func TestProposal_Amounts(t *testing.T) {
	tier := decision.Tier{DailyMin: 2_500, DailyMax: 5_000, MinimumCommitment: 500_000, InvestmentAmount: 600_000}
	got := Proposal(NewProposalData("ABC", "abc", tier))
	assert.True(t, strings.HasPrefix(got, "📄 PROPOSAL FORMAT:\n\nInvestment Proposal - ABC\n\nInvestment: $600K\nMinimum commitment: $500K\n"))
	assert.Contains(t, got, "daily transactions of $2.5K total per day, then\nincrease to $2.5K - $5K per day")
	assert.Equal(t, 2, strings.Count(got, "https://coinmarketcap.com/currencies/abc/"))
}

func TestDecision(t *testing.T) {
	tiered := decision.InvestmentDecision{
		Verdict: decision.VerdictTiered,
		Tier:    &decision.Tier{DailyMin: 500, DailyMax: 1_000, MinimumCommitment: 250_000, InvestmentAmount: 350_000},
	}
	assert.Contains(t, Decision("ABC", "abc", tiered), "Investment: $350K")

	none := decision.InvestmentDecision{Verdict: decision.VerdictNoEligibleExchange, Message: decision.NoEligibleExchangeMessage}
	assert.Equal(t, decision.NoEligibleExchangeMessage, Decision("ABC", "abc", none))

	rejected := decision.InvestmentDecision{
		Verdict:   decision.VerdictRejected,
		Rationale: []string{"Market cap: 500000 (raw: $500K). Market cap is less than $1M. Skipping."},
	}
	assert.Equal(t,
		"No investment proposal for ABC.\n• Market cap: 500000 (raw: $500K). Market cap is less than $1M. Skipping.",
		Decision("ABC", "abc", rejected))
}

func TestRejection_EscapesHTML(t *testing.T) {
	rejected := decision.InvestmentDecision{
		Verdict: decision.VerdictRejected,
		Rationale: []string{
			"CEX Volume: 100000, CEX Liquidity: 120 (Binance)",
			"CEX volume < 150K and liquidity score 1-150. Skipping.",
		},
	}
	got := Decision("A&B <Token>", "ab", rejected)
	assert.Contains(t, got, "No investment proposal for A&amp;B &lt;Token&gt;.")
	assert.Contains(t, got, "• CEX volume &lt; 150K and liquidity score 1-150. Skipping.")
	assert.NotContains(t, got, "<")
}

func TestProposal_EscapesTokenName(t *testing.T) {
	tier := decision.Tier{DailyMin: 500, DailyMax: 1_000, MinimumCommitment: 250_000, InvestmentAmount: 350_000}
	got := Proposal(NewProposalData("Fish & <Chips>", "fish", tier))
	assert.Contains(t, got, "Investment Proposal - Fish &amp; &lt;Chips&gt;\n")
	assert.NotContains(t, got, "<Chips>")
	assert.NotContains(t, strings.ReplaceAll(got, "&amp;", ""), "& ")
}

func TestSpamNotice(t *testing.T) {
	assert.Equal(t, NoticeSpam, SpamNotice(10))
	assert.Equal(t, "please don't spam me 🥺 please wait for 30secs", SpamNotice(30))
}

func TestListingURL(t *testing.T) {
	assert.Equal(t, "https://coinmarketcap.com/currencies/bitcoin/", ListingURL("bitcoin"))
}
