package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Telegram.validate(); err != nil {
		return err
	}
	if err := c.CMC.validate(); err != nil {
		return err
	}
	if err := c.Scraper.validate(); err != nil {
		return err
	}
	if err := c.Session.validate(); err != nil {
		return err
	}
	if err := c.Cache.validate(); err != nil {
		return err
	}
	return c.ProposalLog.validate()
}

func (t *TelegramConfig) validate() error {
	if strings.TrimSpace(t.BotToken) == "" {
		return fmt.Errorf("telegram.bot_token is required (or set TELEGRAM_BOT_TOKEN)")
	}
	if err := validateHTTPURL("telegram.api_root", t.APIRoot); err != nil {
		return err
	}
	if t.MaxAttempts > 10 {
		return fmt.Errorf("telegram.max_attempts must be <= 10")
	}
	return nil
}

func (c *CMCConfig) validate() error {
	// api_key may be empty: the resolver then falls back to the slug as display name.
	return validateHTTPURL("cmc.base_url", c.BaseURL)
}

func (s *ScraperConfig) validate() error {
	if err := validateHTTPURL("scraper.listing_url", s.ListingURL); err != nil {
		return err
	}
	if s.FetchTimeoutSeconds < s.PageTimeoutSeconds {
		return fmt.Errorf("scraper.fetch_timeout_seconds (%d) must be >= scraper.page_timeout_seconds (%d)",
			s.FetchTimeoutSeconds, s.PageTimeoutSeconds)
	}
	return nil
}

func (s *SessionConfig) validate() error {
	if s.BlockSeconds < s.CooldownSeconds {
		return fmt.Errorf("session.block_seconds must be >= session.cooldown_seconds")
	}
	if s.MaxSessions < 0 {
		return fmt.Errorf("session.max_sessions must be >= 0")
	}
	return nil
}

func (c *CacheConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("cache.redis_url is required when cache.enabled=true")
	}
	return nil
}

func (p *ProposalLogConfig) validate() error {
	if p.Enabled && strings.TrimSpace(p.Path) == "" {
		return fmt.Errorf("proposal_log.path is required when proposal_log.enabled=true")
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s is not a valid url: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s missing host", field)
	}
	return nil
}
