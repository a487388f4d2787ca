package app

import (
	"fmt"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
)

// StartupSummary is printed once before the server starts.
type StartupSummary struct {
	Env         string
	HTTPAddr    string
	Source      string
	CEXLimit    int
	Cooldown    string
	Block       string
	Cache       string
	ProposalLog string
	OperatorSet bool
	Forward     bool
}

func newStartupSummary(cfg *config.Config, source string) *StartupSummary {
	s := &StartupSummary{
		Env:         cfg.App.Env,
		HTTPAddr:    cfg.App.HTTPAddr,
		Source:      source,
		CEXLimit:    cfg.Scraper.CEXLimit,
		Cooldown:    cfg.Session.Cooldown().String(),
		Block:       cfg.Session.Block().String(),
		Cache:       "disabled",
		ProposalLog: "disabled",
		OperatorSet: strings.TrimSpace(cfg.Telegram.ChatID) != "",
		Forward:     cfg.Telegram.ForwardResults,
	}
	if cfg.Cache.Enabled {
		s.Cache = fmt.Sprintf("redis ttl=%s", cfg.Cache.TTL())
	}
	if cfg.ProposalLog.Enabled {
		s.ProposalLog = cfg.ProposalLog.Path
	}
	return s
}

func (s *StartupSummary) Lines() []string {
	return []string{
		fmt.Sprintf("环境: %s", orDash(s.Env)),
		fmt.Sprintf("监听地址: %s", orDash(s.HTTPAddr)),
		fmt.Sprintf("行情来源: %s (CEX top %d)", orDash(s.Source), s.CEXLimit),
		fmt.Sprintf("会话冷却/封禁: %s / %s", s.Cooldown, s.Block),
		fmt.Sprintf("快照缓存: %s", s.Cache),
		fmt.Sprintf("审计日志: %s", s.ProposalLog),
		fmt.Sprintf("运营会话: %t (转发结果: %t)", s.OperatorSet, s.Forward),
	}
}

// Print 写入日志（含日志文件 tee）。
func (s *StartupSummary) Print() {
	rule := strings.Repeat("=", 60)
	lines := append([]string{rule, "启动配置摘要 (STARTUP SUMMARY)", rule}, s.Lines()...)
	lines = append(lines, rule)
	logger.InfoBlock(strings.Join(lines, "\n"))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
