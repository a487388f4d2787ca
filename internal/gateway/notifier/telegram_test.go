package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleep struct {
	mu     sync.Mutex
	waits  []time.Duration
	cancel bool
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return !r.cancel
}

func newTestTelegram(t *testing.T, srv *httptest.Server, rs *recordedSleep, clients *atomic.Int32) *Telegram {
	t.Helper()
	cfg := config.TelegramConfig{BotToken: "TOKEN", ChatID: "-100", APIRoot: srv.URL, TimeoutSeconds: 2, MaxAttempts: 3}
	return NewTelegram(cfg,
		WithSleep(rs.sleep),
		WithClientFactory(func() *http.Client {
			clients.Add(1)
			return &http.Client{Timeout: 2 * time.Second}
		}),
	)
}

func TestDeliver_FirstAttemptSucceeds(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)

	assert.True(t, tg.Deliver(context.Background(), "42", "hello <b>world</b>"))
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "hello <b>world</b>", got.Text)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.False(t, got.DisableWebPagePreview)
	assert.Empty(t, rs.waits)
	assert.Equal(t, int32(1), clients.Load())
}

func TestDeliver_RetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)

	assert.True(t, tg.Deliver(context.Background(), "42", "hi"))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rs.waits)
	assert.Equal(t, int32(1), clients.Load())
}

func TestDeliver_FreshConnectionAfterAllAttemptsFail(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)

	assert.True(t, tg.Deliver(context.Background(), "42", "hi"))
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rs.waits)
	assert.Equal(t, int32(2), clients.Load(), "final attempt must use a new client")
}

func TestDeliver_GivesUpAfterFreshAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)

	assert.False(t, tg.Deliver(context.Background(), "42", "hi"))
	assert.Equal(t, int32(4), calls.Load())
}

func TestDeliver_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)

	assert.False(t, tg.Deliver(context.Background(), "42", "hi"))
	assert.Len(t, rs.waits, 3)
}

func TestDeliver_StopsWhenContextDone(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rs := &recordedSleep{cancel: true}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)

	assert.False(t, tg.Deliver(context.Background(), "42", "hi"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeliver_MissingChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("unexpected request")
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)
	assert.False(t, tg.Deliver(context.Background(), " ", "hi"))
}

func TestSendText_UsesOperatorChat(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rs := &recordedSleep{}
	var clients atomic.Int32
	tg := newTestTelegram(t, srv, rs, &clients)
	require.NoError(t, tg.SendText("ops"))
	assert.Equal(t, "-100", got.ChatID)
}

func TestStructuredMessage_RenderHTML(t *testing.T) {
	msg := StructuredMessage{
		Icon:  "⚠️",
		Title: "Pipeline failed <abc>",
		Sections: []MessageSection{
			{Title: "Details", Lines: []string{"slug=abc", " ", "err=a & b"}},
			{Title: "Empty", Lines: []string{""}},
		},
		Footer:    "trace 123",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	want := "<b>⚠️ Pipeline failed &lt;abc&gt;</b>\n\n" +
		"<b>Details</b>\n• slug=abc\n• err=a &amp; b\n\n" +
		"<i>trace 123</i>\n2025-01-02 03:04:05 UTC"
	assert.Equal(t, want, msg.RenderHTML())
}
