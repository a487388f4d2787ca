package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/agent"
	"github.com/johncarlocaintic/VictusGlobal/internal/coins"
	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/decision"
	"github.com/johncarlocaintic/VictusGlobal/internal/gateway/notifier"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"
	"github.com/johncarlocaintic/VictusGlobal/internal/market/scrape"
	"github.com/johncarlocaintic/VictusGlobal/internal/metrics"
	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/circuit"
	"github.com/johncarlocaintic/VictusGlobal/internal/session"
	"github.com/johncarlocaintic/VictusGlobal/internal/store/proposallog"
	"github.com/johncarlocaintic/VictusGlobal/internal/transport/http/webhook"
)

// Messenger is the outbound chat side: per-chat delivery plus operator alerts.
type Messenger interface {
	notifier.Dispatcher
	notifier.TextNotifier
}

type AppBuilder struct {
	cfg     *config.Config
	cfgPath string

	sourceOverride    market.Source
	messengerOverride Messenger
	resolverOverride  coins.Resolver
	watch             bool
}

type AppBuilderOption func(*AppBuilder)

// WithSource replaces the headless-browser market source.
func WithSource(src market.Source) AppBuilderOption {
	return func(b *AppBuilder) { b.sourceOverride = src }
}

// WithMessenger replaces the Telegram client.
func WithMessenger(m Messenger) AppBuilderOption {
	return func(b *AppBuilder) { b.messengerOverride = m }
}

// WithResolver replaces the CoinMarketCap resolver.
func WithResolver(r coins.Resolver) AppBuilderOption {
	return func(b *AppBuilder) { b.resolverOverride = r }
}

// WithConfigWatch enables hot reload of the config file at path.
func WithConfigWatch(path string) AppBuilderOption {
	return func(b *AppBuilder) {
		b.cfgPath = strings.TrimSpace(path)
		b.watch = b.cfgPath != ""
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build 按依赖顺序装配所有组件，任一步失败都会释放已创建的资源。
func (b *AppBuilder) Build(ctx context.Context) (_ *App, err error) {
	if b == nil || b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	a := &App{cfg: cfg, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	messenger := b.messengerOverride
	if messenger == nil {
		messenger = notifier.NewTelegram(cfg.Telegram, notifier.WithMetrics(a.metrics))
	}

	resolver := b.resolverOverride
	if resolver == nil {
		breaker := circuit.NewCircuitBreaker("cmc", cfg.CMC.BreakerThreshold, cfg.CMC.BreakerCooldown())
		breaker.OnStateChange(breakerAlert(messenger))
		resolver = coins.NewCMCResolver(cfg.CMC, breaker)
	}

	src := b.sourceOverride
	if src == nil {
		a.scraper = scrape.NewScraper(cfg.Scraper)
		src = a.scraper
	}
	asmOpts := []market.AssemblerOption{
		market.WithCEXLimit(cfg.Scraper.CEXLimit),
		market.WithFetchTimeout(cfg.Scraper.FetchTimeout()),
	}
	if cfg.Cache.Enabled {
		cache, err := market.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.RedisPassword, cfg.Cache.TTL())
		if err != nil {
			return nil, fmt.Errorf("snapshot cache: %w", err)
		}
		a.cache = cache
		asmOpts = append(asmOpts, market.WithCache(instrumentedCache{Cache: cache, metrics: a.metrics}))
	}
	assembler := market.NewAssembler(src, asmOpts...)

	var logs agent.ProposalLog
	var lister webhook.ProposalLister
	if cfg.ProposalLog.Enabled {
		store, err := proposallog.Open(cfg.ProposalLog.Path)
		if err != nil {
			return nil, err
		}
		a.logs = store
		logs, lister = store, store
	}

	a.registry = session.NewRegistry()
	arbiter := session.NewArbiter(a.registry, cfg.Session.Cooldown(), cfg.Session.Block())

	proposals, err := agent.NewProposalService(agent.ProposalServiceParams{
		Gate:           arbiter,
		Resolver:       resolver,
		Assembler:      assembler,
		Engine:         decision.Engine{},
		Dispatcher:     messenger,
		Log:            logs,
		Metrics:        a.metrics,
		OperatorChatID: cfg.Telegram.ChatID,
		ForwardResults: cfg.Telegram.ForwardResults,
		BlockSeconds:   cfg.Session.BlockSeconds,
	})
	if err != nil {
		return nil, err
	}
	a.proposals = proposals

	server, err := webhook.NewServer(webhook.ServerConfig{
		Addr:          cfg.App.HTTPAddr,
		ShutdownGrace: cfg.App.ShutdownGrace(),
		Pipeline:      proposals,
		Proposals:     lister,
		Metrics:       a.metrics.Handler(),
	})
	if err != nil {
		return nil, err
	}
	a.server = server

	if b.watch {
		w, err := config.NewWatcher(b.cfgPath, cfg)
		if err != nil {
			logger.Warnf("config hot reload disabled: %v", err)
		} else {
			w.Subscribe(func(next *config.Config) {
				logger.SetLevel(next.App.LogLevel)
			})
			a.watcher = w
		}
	}

	a.Summary = newStartupSummary(cfg, src.Name())
	return a, nil
}

func breakerAlert(n notifier.TextNotifier) circuit.StateChangeFunc {
	return func(name string, from, to circuit.State) {
		logger.Warnf("circuit %s: %s -> %s", name, from, to)
		if n == nil || to != circuit.StateOpen {
			return
		}
		msg := notifier.StructuredMessage{
			Icon:  "⚠️",
			Title: "Token resolver degraded",
			Sections: []notifier.MessageSection{{
				Lines: []string{
					fmt.Sprintf("circuit %s opened after repeated failures", name),
					"proposals fall back to the slug as token name",
				},
			}},
			Timestamp: time.Now(),
		}
		go func() {
			if err := n.SendText(msg.RenderHTML()); err != nil {
				logger.Warnf("breaker alert failed: %v", err)
			}
		}()
	}
}

// instrumentedCache counts snapshot cache hits and misses.
type instrumentedCache struct {
	market.Cache
	metrics *metrics.Metrics
}

func (c instrumentedCache) Get(ctx context.Context, slug string) (market.MarketData, bool, error) {
	data, ok, err := c.Cache.Get(ctx, slug)
	switch {
	case err != nil:
		c.metrics.RecordCache("error")
	case ok:
		c.metrics.RecordCache("hit")
	default:
		c.metrics.RecordCache("miss")
	}
	return data, ok, err
}
