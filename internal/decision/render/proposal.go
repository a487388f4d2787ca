package render

import (
	"html"
	"strings"
	"text/template"

	"github.com/johncarlocaintic/VictusGlobal/internal/decision"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
)

// ListingURL is the public CoinMarketCap page of a token.
func ListingURL(slug string) string {
	return "https://coinmarketcap.com/currencies/" + strings.TrimSpace(slug) + "/"
}

// ProposalData feeds the proposal template. Amounts are compact notation without
// the dollar sign; TokenName is already HTML-escaped.
type ProposalData struct {
	TokenName  string
	Investment string
	Commitment string
	DailyMin   string
	DailyMax   string
	TokenLink  string
}

func NewProposalData(tokenName, slug string, tier decision.Tier) ProposalData {
	text := tier.Text()
	return ProposalData{
		TokenName:  html.EscapeString(tokenName),
		Investment: text.InvestmentAmount,
		Commitment: text.MinimumCommitment,
		DailyMin:   text.DailyMin,
		DailyMax:   text.DailyMax,
		TokenLink:  ListingURL(slug),
	}
}

// proposalTemplate is sent with parse_mode=HTML; literal ampersands are entities.
const proposalTemplate = `📄 PROPOSAL FORMAT:

Investment Proposal - {{.TokenName}}

Investment: ${{.Investment}}
Minimum commitment: ${{.Commitment}}
Discount: 22%
Trial period: 2 weeks.

Investment will be made in daily transactions of ${{.DailyMin}} total per day, then
increase to ${{.DailyMin}} - ${{.DailyMax}} per day after trial period. Price will be determined using the current,
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
{{.TokenLink}}

🔹Follow us on X
https://x.com/VictusGlobal_

{{.TokenLink}}
`

var proposalTmpl = template.Must(template.New("proposal").Parse(proposalTemplate))

// Proposal renders the investment proposal message.
func Proposal(data ProposalData) string {
	var b strings.Builder
	if err := proposalTmpl.Execute(&b, data); err != nil {
		logger.Warnf("proposal 模板渲染失败: %v", err)
		return ""
	}
	return b.String()
}
