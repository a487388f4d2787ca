package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{}

func (staticSource) FetchCEXMarkets(context.Context, string, int) ([]market.CEXMarket, error) {
	return []market.CEXMarket{{Exchange: "Binance", Volume24h: "$1M", LiquidityScore: "700"}}, nil
}

func (staticSource) FetchTopDEX(context.Context, string) (*market.DEXMarket, error) {
	return nil, nil
}

func (staticSource) FetchOverview(context.Context, string) (market.Overview, error) {
	return market.Overview{MarketCap: "$5M", Volume24h: "$4M"}, nil
}

func (staticSource) Name() string { return "static" }

type nopMessenger struct {
	mu   sync.Mutex
	sent int
}

func (m *nopMessenger) Deliver(context.Context, string, string) bool {
	m.mu.Lock()
	m.sent++
	m.mu.Unlock()
	return true
}

func (m *nopMessenger) SendText(string) error { return nil }

type emptyResolver struct{}

func (emptyResolver) Resolve(context.Context, string) (market.Identity, error) {
	return market.Identity{Name: "Alpha", Symbol: "ALP"}, nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.App.HTTPAddr = "127.0.0.1:0"
	cfg.App.ShutdownGraceSeconds = 1
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "999"
	cfg.Session = config.SessionConfig{
		CooldownSeconds:      2,
		BlockSeconds:         10,
		IdleTTLMinutes:       30,
		SweepIntervalSeconds: 60,
	}
	cfg.ProposalLog.Enabled = true
	cfg.ProposalLog.Path = filepath.Join(t.TempDir(), "proposals.db")
	return cfg
}

func buildTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := NewApp(context.Background(), cfg,
		WithSource(staticSource{}),
		WithMessenger(&nopMessenger{}),
		WithResolver(emptyResolver{}),
	)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewApp_EvaluatesThroughWiredStack(t *testing.T) {
	a := buildTestApp(t, testConfig(t))
	require.NotNil(t, a.Proposals())
	require.NotNil(t, a.Server())
	assert.Equal(t, "static", a.Summary.Source)
	assert.NotEmpty(t, a.Summary.Lines())

	eval, err := a.Proposals().Evaluate(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", eval.Snapshot.TokenName)
	assert.True(t, eval.Decision.Tiered())
}

func TestNewApp_NilConfig(t *testing.T) {
	_, err := NewApp(context.Background(), nil)
	assert.Error(t, err)
}

func TestSweepOnce_EvictsIdleSessions(t *testing.T) {
	a := buildTestApp(t, testConfig(t))
	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a.registry.GetOrCreate("1", t0)
	a.registry.GetOrCreate("2", t0.Add(29*time.Minute))

	evicted := a.SweepOnce(t0.Add(31 * time.Minute))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, a.registry.Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	a := buildTestApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
