package config

import (
	"strings"
	"time"
)

// Config 是服务的主配置载体。
type Config struct {
	App         AppConfig         `toml:"app"`
	Telegram    TelegramConfig    `toml:"telegram"`
	CMC         CMCConfig         `toml:"cmc"`
	Scraper     ScraperConfig     `toml:"scraper"`
	Session     SessionConfig     `toml:"session"`
	Cache       CacheConfig       `toml:"cache"`
	ProposalLog ProposalLogConfig `toml:"proposal_log"`
}

type AppConfig struct {
	Env          string `toml:"env"`
	LogLevel     string `toml:"log_level"`
	HTTPAddr     string `toml:"http_addr"`
	LogPath      string `toml:"log_path"`
	TraceLogPath string `toml:"trace_log_path"`
	TraceDump    bool   `toml:"trace_dump_snapshot"`

	// ShutdownGraceSeconds bounds how long shutdown waits for in-flight proposals.
	ShutdownGraceSeconds int `toml:"shutdown_grace_seconds"`
}

func (a AppConfig) ShutdownGrace() time.Duration {
	return time.Duration(a.ShutdownGraceSeconds) * time.Second
}

// TelegramConfig 描述 Bot API 访问方式。ChatID 是运营方自己的会话，用于
// /notify_investment_proposal 这类没有来源会话的请求。
type TelegramConfig struct {
	BotToken       string `toml:"bot_token"`
	ChatID         string `toml:"chat_id"`
	APIRoot        string `toml:"api_root"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`

	// ForwardResults copies every final result (proposal or verdict) to ChatID as well.
	ForwardResults bool `toml:"forward_results"`
}

func (t TelegramConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// CMCConfig covers the pricing API used to resolve token identity.
type CMCConfig struct {
	APIKey                 string `toml:"api_key"`
	BaseURL                string `toml:"base_url"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	BreakerThreshold       int    `toml:"breaker_threshold"`
	BreakerCooldownSeconds int    `toml:"breaker_cooldown_seconds"`
}

func (c CMCConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c CMCConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSeconds) * time.Second
}

// ScraperConfig 控制 headless Chrome 抓取行为。
type ScraperConfig struct {
	ListingURL          string `toml:"listing_url"`
	Headless            bool   `toml:"headless"`
	ChromePath          string `toml:"chrome_path"`
	UserAgent           string `toml:"user_agent"`
	SettleMillis        int    `toml:"settle_millis"`
	PageTimeoutSeconds  int    `toml:"page_timeout_seconds"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	CEXLimit            int    `toml:"cex_limit"`
}

func (s ScraperConfig) Settle() time.Duration {
	return time.Duration(s.SettleMillis) * time.Millisecond
}

func (s ScraperConfig) PageTimeout() time.Duration {
	return time.Duration(s.PageTimeoutSeconds) * time.Second
}

func (s ScraperConfig) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutSeconds) * time.Second
}

// SessionConfig 控制每个会话的冷却、封禁与空闲回收。
type SessionConfig struct {
	CooldownSeconds      int `toml:"cooldown_seconds"`
	BlockSeconds         int `toml:"block_seconds"`
	IdleTTLMinutes       int `toml:"idle_ttl_minutes"`
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
	MaxSessions          int `toml:"max_sessions"`
}

func (s SessionConfig) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}

func (s SessionConfig) Block() time.Duration {
	return time.Duration(s.BlockSeconds) * time.Second
}

func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

type CacheConfig struct {
	Enabled       bool   `toml:"enabled"`
	RedisURL      string `toml:"redis_url"`
	RedisPassword string `toml:"redis_password"`
	TTLSeconds    int    `toml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ProposalLogConfig enables the sqlite audit trail of evaluated tokens.
type ProposalLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
