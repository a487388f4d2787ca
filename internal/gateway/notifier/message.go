package notifier

import (
	"html"
	"strings"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/text"
)

const maxStructuredMessageRunes = 3800

// MessageSection 表示通知中的一个段落。
type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage 描述发给运营方的告警格式。
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

// RenderHTML renders the message for parse_mode=HTML, escaping all user content.
func (m StructuredMessage) RenderHTML() string {
	var b strings.Builder
	if header := strings.TrimSpace(m.Icon + " " + html.EscapeString(strings.TrimSpace(m.Title))); header != "" {
		b.WriteString("<b>" + header + "</b>\n\n")
	}
	for _, sec := range m.Sections {
		lines := sanitizeLines(sec.Lines)
		if len(lines) == 0 {
			continue
		}
		if title := strings.TrimSpace(sec.Title); title != "" {
			b.WriteString("<b>" + html.EscapeString(title) + "</b>\n")
		}
		for _, line := range lines {
			b.WriteString("• " + html.EscapeString(line) + "\n")
		}
		b.WriteString("\n")
	}
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		b.WriteString("<i>" + html.EscapeString(footer) + "</i>\n")
	}
	if !m.Timestamp.IsZero() {
		b.WriteString(m.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return text.Truncate(strings.TrimSpace(b.String()), maxStructuredMessageRunes)
}

func sanitizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
