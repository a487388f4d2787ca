package app

import (
	"context"
	"fmt"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/agent"
	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"
	"github.com/johncarlocaintic/VictusGlobal/internal/market/scrape"
	"github.com/johncarlocaintic/VictusGlobal/internal/metrics"
	"github.com/johncarlocaintic/VictusGlobal/internal/session"
	"github.com/johncarlocaintic/VictusGlobal/internal/store/proposallog"
	"github.com/johncarlocaintic/VictusGlobal/internal/transport/http/webhook"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 webhook 服务与会话清理。
type App struct {
	cfg       *config.Config
	proposals *agent.ProposalService
	server    *webhook.Server
	registry  *session.Registry
	metrics   *metrics.Metrics
	scraper   *scrape.Scraper
	cache     *market.RedisCache
	logs      *proposallog.Store
	watcher   *config.Watcher
	Summary   *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(ctx context.Context, cfg *config.Config, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return NewAppBuilder(cfg, opts...).Build(ctx)
}

// Run serves until ctx is cancelled, then drains in-flight proposals.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.proposals == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	if a.Summary != nil {
		a.Summary.Print()
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(gctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.sweepSessions(gctx)
		return nil
	})
	runErr := group.Wait()

	grace := a.cfg.App.ShutdownGrace()
	if grace <= 0 {
		grace = 15 * time.Second
	}
	shCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := a.proposals.Shutdown(shCtx); err != nil {
		logger.Warnf("in-flight proposals cancelled at shutdown: %v", err)
	}
	logger.Infof("✓ 优雅关闭完成")
	return runErr
}

func (a *App) sweepSessions(ctx context.Context) {
	interval := a.cfg.Session.SweepInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.SweepOnce(now)
		}
	}
}

// SweepOnce evicts idle sessions and returns how many were dropped.
func (a *App) SweepOnce(now time.Time) int {
	evicted := a.registry.Sweep(now, a.cfg.Session.IdleTTL(), a.cfg.Session.MaxSessions)
	remaining := a.registry.Len()
	a.metrics.RecordSweep(evicted, remaining)
	if evicted > 0 {
		logger.Debugf("session sweep evicted=%d remaining=%d", evicted, remaining)
	}
	return evicted
}

// Proposals exposes the pipeline service (CLI and tests).
func (a *App) Proposals() *agent.ProposalService {
	if a == nil {
		return nil
	}
	return a.proposals
}

// Server exposes the HTTP server.
func (a *App) Server() *webhook.Server {
	if a == nil {
		return nil
	}
	return a.server
}

// Close releases browser, cache and database resources. Safe to call twice.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.scraper != nil {
		a.scraper.Close()
		a.scraper = nil
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Warnf("snapshot cache close failed: %v", err)
		}
		a.cache = nil
	}
	if a.logs != nil {
		if err := a.logs.Close(); err != nil {
			logger.Warnf("proposal log close failed: %v", err)
		}
		a.logs = nil
	}
}
