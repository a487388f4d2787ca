package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/metrics"
	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/text"
)

// 中文说明：
// Telegram 通知器：复用同一个 http.Client 重试，全部失败后再用新建的连接补发一次。

const maxMessageRunes = 4096

// SleepFunc waits for d or until ctx is done; it reports whether the full wait elapsed.
type SleepFunc func(ctx context.Context, d time.Duration) bool

// ClientFactory builds the HTTP client used for deliveries.
type ClientFactory func() *http.Client

type Option func(*Telegram)

// WithClientFactory replaces how clients are built (both the shared one and the
// fresh one used for the final attempt).
func WithClientFactory(f ClientFactory) Option {
	return func(t *Telegram) {
		if f != nil {
			t.newClient = f
		}
	}
}

func WithSleep(fn SleepFunc) Option {
	return func(t *Telegram) {
		if fn != nil {
			t.sleep = fn
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Telegram) { t.metrics = m }
}

type Telegram struct {
	apiRoot  string
	botToken string
	chatID   string
	attempts int

	client    *http.Client
	newClient ClientFactory
	sleep     SleepFunc
	metrics   *metrics.Metrics
	log       *logger.Component
}

func NewTelegram(cfg config.TelegramConfig, opts ...Option) *Telegram {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	t := &Telegram{
		apiRoot:  strings.TrimRight(cfg.APIRoot, "/"),
		botToken: cfg.BotToken,
		chatID:   strings.TrimSpace(cfg.ChatID),
		attempts: cfg.MaxAttempts,
		newClient: func() *http.Client {
			return &http.Client{Timeout: timeout, Transport: http.DefaultTransport.(*http.Transport).Clone()}
		},
		sleep: sleepCtx,
		log:   logger.With("telegram"),
	}
	if t.apiRoot == "" {
		t.apiRoot = "https://api.telegram.org"
	}
	if t.attempts <= 0 {
		t.attempts = 3
	}
	for _, opt := range opts {
		opt(t)
	}
	t.client = t.newClient()
	return t
}

// OperatorChat returns the configured operator chat id (may be empty).
func (t *Telegram) OperatorChat() string { return t.chatID }

// Deliver sends text to chatID. It makes up to attempts tries over the shared
// client, waiting 1s, 2s, 4s... between tries, then one last try over a freshly
// built client. Transport errors and non-2xx responses are retried.
func (t *Telegram) Deliver(ctx context.Context, chatID, msg string) bool {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" || strings.TrimSpace(t.botToken) == "" {
		t.log.Warnf("deliver skipped: missing chat id or bot token")
		return false
	}
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text.Truncate(msg, maxMessageRunes),
		ParseMode:             "HTML",
		DisableWebPagePreview: false,
	})
	if err != nil {
		t.log.Errorf("encode sendMessage: %v", err)
		return false
	}

	tries := 0
	for i := 0; i < t.attempts; i++ {
		if i > 0 && !t.sleep(ctx, backoff(i-1)) {
			t.finish(false, tries, chatID, ctx.Err())
			return false
		}
		tries++
		err = t.post(ctx, t.client, body)
		if err == nil {
			t.finish(true, tries, chatID, nil)
			return true
		}
		t.log.Warnf("chat=%s attempt %d/%d failed: %v", chatID, i+1, t.attempts, err)
	}

	if !t.sleep(ctx, backoff(t.attempts-1)) {
		t.finish(false, tries, chatID, ctx.Err())
		return false
	}
	tries++
	if err = t.post(ctx, t.newClient(), body); err != nil {
		t.finish(false, tries, chatID, err)
		return false
	}
	t.log.Infof("chat=%s delivered over a fresh connection", chatID)
	t.finish(true, tries, chatID, nil)
	return true
}

// SendText 发送到运营方会话。
func (t *Telegram) SendText(msg string) error {
	if t.chatID == "" {
		return errors.New("telegram chat_id not configured")
	}
	if !t.Deliver(context.Background(), t.chatID, msg) {
		return fmt.Errorf("telegram delivery to %s failed", t.chatID)
	}
	return nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (t *Telegram) post(ctx context.Context, client *http.Client, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiRoot, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telegram status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

func (t *Telegram) finish(ok bool, tries int, chatID string, err error) {
	t.metrics.RecordDelivery(ok, tries)
	if !ok {
		t.log.Errorf("chat=%s delivery failed after %d attempts: %v", chatID, tries, err)
	}
}

func backoff(i int) time.Duration {
	return time.Second << uint(i)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
