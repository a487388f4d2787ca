package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverlay 列出允许通过环境变量覆盖的敏感字段。
type envOverlay struct {
	BotToken      string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID        string `env:"TELEGRAM_CHAT_ID"`
	CMCAPIKey     string `env:"CMC_API_KEY"`
	RedisURL      string `env:"REDIS_URL"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	Port          string `env:"PORT"`
	LogLevel      string `env:"LOG_LEVEL"`
}

func (c *Config) applyEnv(environ map[string]string) error {
	var ov envOverlay
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&ov, opts); err != nil {
		return fmt.Errorf("parsing environment overrides failed: %w", err)
	}
	override(&c.Telegram.BotToken, ov.BotToken)
	override(&c.Telegram.ChatID, ov.ChatID)
	override(&c.CMC.APIKey, ov.CMCAPIKey)
	override(&c.Cache.RedisPassword, ov.RedisPassword)
	override(&c.App.LogLevel, ov.LogLevel)
	if strings.TrimSpace(ov.RedisURL) != "" {
		c.Cache.RedisURL = strings.TrimSpace(ov.RedisURL)
		c.Cache.Enabled = true
	}
	if port := strings.TrimSpace(ov.Port); port != "" {
		c.App.HTTPAddr = ":" + strings.TrimPrefix(port, ":")
	}
	return nil
}

func override(dst *string, val string) {
	if val = strings.TrimSpace(val); val != "" {
		*dst = val
	}
}
