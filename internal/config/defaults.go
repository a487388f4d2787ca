package config

import "strings"

// 默认值常量
const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":5000"
	defaultShutdownGrace    = 15
	defaultTelegramAPIRoot  = "https://api.telegram.org"
	defaultTelegramTimeout  = 10
	defaultTelegramAttempts = 3
	defaultCMCBaseURL       = "https://pro-api.coinmarketcap.com"
	defaultCMCTimeout       = 10
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 60
	defaultListingURL       = "https://coinmarketcap.com/currencies"
	defaultScraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultScraperSettle    = 3000
	defaultScraperPage      = 30
	defaultScraperFetch     = 90
	defaultScraperCEXLimit  = 3
	defaultSessionCooldown  = 2
	defaultSessionBlock     = 10
	defaultSessionIdleTTL   = 30
	defaultSessionSweep     = 60
	defaultCacheTTL         = 300
	defaultProposalLogPath  = "data/proposals.db"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Telegram.applyDefaults(keys)
	c.CMC.applyDefaults(keys)
	c.Scraper.applyDefaults(keys)
	c.Session.applyDefaults(keys)
	c.Cache.applyDefaults(keys)
	c.ProposalLog.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		positiveIntDefault("app.shutdown_grace_seconds", &a.ShutdownGraceSeconds, defaultShutdownGrace),
	)
}

func (t *TelegramConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("telegram.api_root", &t.APIRoot, defaultTelegramAPIRoot),
		positiveIntDefault("telegram.timeout_seconds", &t.TimeoutSeconds, defaultTelegramTimeout),
		positiveIntDefault("telegram.max_attempts", &t.MaxAttempts, defaultTelegramAttempts),
		boolFieldDefault("telegram.forward_results", &t.ForwardResults, true),
	)
	t.APIRoot = strings.TrimRight(t.APIRoot, "/")
}

func (c *CMCConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("cmc.base_url", &c.BaseURL, defaultCMCBaseURL),
		positiveIntDefault("cmc.timeout_seconds", &c.TimeoutSeconds, defaultCMCTimeout),
		positiveIntDefault("cmc.breaker_threshold", &c.BreakerThreshold, defaultBreakerThreshold),
		positiveIntDefault("cmc.breaker_cooldown_seconds", &c.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

func (s *ScraperConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("scraper.listing_url", &s.ListingURL, defaultListingURL),
		boolFieldDefault("scraper.headless", &s.Headless, true),
		stringFieldDefault("scraper.user_agent", &s.UserAgent, defaultScraperUserAgent),
		positiveIntDefault("scraper.settle_millis", &s.SettleMillis, defaultScraperSettle),
		positiveIntDefault("scraper.page_timeout_seconds", &s.PageTimeoutSeconds, defaultScraperPage),
		positiveIntDefault("scraper.fetch_timeout_seconds", &s.FetchTimeoutSeconds, defaultScraperFetch),
		positiveIntDefault("scraper.cex_limit", &s.CEXLimit, defaultScraperCEXLimit),
	)
	s.ListingURL = strings.TrimRight(s.ListingURL, "/")
}

func (s *SessionConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		positiveIntDefault("session.cooldown_seconds", &s.CooldownSeconds, defaultSessionCooldown),
		positiveIntDefault("session.block_seconds", &s.BlockSeconds, defaultSessionBlock),
		positiveIntDefault("session.idle_ttl_minutes", &s.IdleTTLMinutes, defaultSessionIdleTTL),
		positiveIntDefault("session.sweep_interval_seconds", &s.SweepIntervalSeconds, defaultSessionSweep),
	)
}

func (c *CacheConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		positiveIntDefault("cache.ttl_seconds", &c.TTLSeconds, defaultCacheTTL),
	)
}

func (p *ProposalLogConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("proposal_log.path", &p.Path, defaultProposalLogPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.need == nil {
			if def.key != "" && keys.isSet(def.key) {
				continue
			}
		} else if !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// boolFieldDefault only applies when the key is absent; an explicit false is kept.
func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key: key,
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func positiveIntDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
