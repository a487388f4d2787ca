package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/decision"
)

// Fixed chat notices.
const (
	NoticeSpam        = "please don't spam me 🥺 please wait for 10secs"
	NoticeUnblocked   = "you can chat me again with another link now 😊 but please dont spam me again i get dizzy 😵‍💫"
	NoticeWrongLink   = "Oh no you send a wrong link try it again it should be related to coinmarketcap link"
	NoticeAccepted    = "I'm on it! I'm working on generating an investment proposal based on the details provided in the link."
	NoticeBadSlug     = "your link structure was wrong try again"
	NoticeFetching    = "Fetching market data..."
	NoticeUnavailable = "Failed to generate proposal: market data is unavailable right now, please try again later."
)

// SpamNotice 按实际封禁时长生成提示；10 秒时与固定文案一致。
func SpamNotice(blockSeconds int) string {
	if blockSeconds <= 0 || blockSeconds == 10 {
		return NoticeSpam
	}
	return fmt.Sprintf("please don't spam me 🥺 please wait for %dsecs", blockSeconds)
}

// Rejection lists the rationale of a rejected token. Token name and rationale
// entries are HTML-escaped.
func Rejection(tokenName string, d decision.InvestmentDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No investment proposal for %s.\n", html.EscapeString(tokenName))
	for _, entry := range d.Rationale {
		b.WriteString("• ")
		b.WriteString(html.EscapeString(entry))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Decision 将结论转换为发给用户的文本（parse_mode=HTML）。
func Decision(tokenName, slug string, d decision.InvestmentDecision) string {
	switch d.Verdict {
	case decision.VerdictTiered:
		if d.Tier != nil {
			return Proposal(NewProposalData(tokenName, slug, *d.Tier))
		}
	case decision.VerdictNoEligibleExchange:
		if d.Message != "" {
			return d.Message
		}
		return decision.NoEligibleExchangeMessage
	}
	return Rejection(tokenName, d)
}
