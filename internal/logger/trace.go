package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	traceMu       sync.Mutex
	traceLog      *log.Logger
	traceSnapDump bool
)

// SetTraceWriter 设置决策追踪日志的输出；nil 表示关闭。
func SetTraceWriter(w io.Writer) {
	traceMu.Lock()
	defer traceMu.Unlock()
	if w == nil {
		traceLog = nil
		return
	}
	traceLog = log.New(w, "", log.LstdFlags)
}

// EnableSnapshotDump controls whether the raw snapshot JSON is included in trace blocks.
func EnableSnapshotDump(enabled bool) {
	traceMu.Lock()
	traceSnapDump = enabled
	traceMu.Unlock()
}

type traceSection struct {
	Title string
	Body  string
}

func writeTrace(traceID, slug string, sections []traceSection) {
	traceMu.Lock()
	l := traceLog
	traceMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[DECISION]")
	if traceID != "" {
		b.WriteString("[" + traceID + "]")
	}
	if slug != "" {
		b.WriteString("[" + slug + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		title := strings.TrimSpace(sec.Title)
		if title == "" {
			title = "CONTENT"
		}
		b.WriteString("--- " + title + " ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogDecisionTrace writes the rationale of one evaluation, and optionally the
// snapshot it was computed from, to the trace log.
func LogDecisionTrace(traceID, slug, verdict string, rationale []string, snapshotJSON string) {
	sections := []traceSection{
		{Title: "VERDICT", Body: verdict},
		{Title: "RATIONALE", Body: strings.Join(rationale, "\n")},
	}
	traceMu.Lock()
	dump := traceSnapDump
	traceMu.Unlock()
	if dump && strings.TrimSpace(snapshotJSON) != "" {
		sections = append(sections, traceSection{Title: "SNAPSHOT", Body: snapshotJSON})
	}
	writeTrace(traceID, slug, sections)
}
