// Package scrape reads market listings from the CoinMarketCap web pages with a
// headless Chrome driven by chromedp.
package scrape

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"

	"github.com/chromedp/chromedp"
)

const (
	consentPause = time.Second
	tabPause     = 2 * time.Second
)

// Scraper implements market.Source. All fetches share one Chrome process; each
// fetch opens its own tab in it, so concurrent fetches never share a page.
type Scraper struct {
	cfg         config.ScraperConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	log         *logger.Component

	browserMu     sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewScraper 创建 chromedp 分配器；浏览器进程在首次抓取时才真正启动，之后各次抓取共用。
func NewScraper(cfg config.ScraperConfig) *Scraper {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	if path := strings.TrimSpace(cfg.ChromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Scraper{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: cancel,
		log:         logger.With("scraper"),
	}
}

func (s *Scraper) Name() string { return "coinmarketcap" }

// Close 关闭浏览器进程。
func (s *Scraper) Close() {
	s.browserMu.Lock()
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCtx, s.browserCancel = nil, nil
	}
	s.browserMu.Unlock()
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// browser returns the context of the shared Chrome process, launching it on
// first use and again after it has gone away.
func (s *Scraper) browser() (context.Context, error) {
	s.browserMu.Lock()
	defer s.browserMu.Unlock()
	if s.browserCtx != nil && s.browserCtx.Err() == nil {
		return s.browserCtx, nil
	}
	if err := s.allocCtx.Err(); err != nil {
		return nil, fmt.Errorf("%w: scraper closed", market.ErrSourceUnavailable)
	}
	browserCtx, cancel := chromedp.NewContext(s.allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start browser: %w", market.ErrSourceUnavailable, err)
	}
	s.log.Infof("browser started (headless=%v)", s.cfg.Headless)
	s.browserCtx, s.browserCancel = browserCtx, cancel
	return browserCtx, nil
}

func (s *Scraper) marketsURL(slug string) string {
	return fmt.Sprintf("%s/%s/markets/", s.cfg.ListingURL, slug)
}

func (s *Scraper) overviewURL(slug string) string {
	return fmt.Sprintf("%s/%s/", s.cfg.ListingURL, slug)
}

// FetchCEXMarkets 打开 markets 页，切到 CEX 标签并读取表格。
func (s *Scraper) FetchCEXMarkets(ctx context.Context, slug string, limit int) ([]market.CEXMarket, error) {
	var table pageTable
	err := s.run(ctx, s.marketsURL(slug),
		evalOptional(selectCEXTabJS, tabPause),
		chromedp.WaitReady("table", chromedp.ByQuery),
		chromedp.Evaluate(readTableJS, &table),
	)
	if err != nil {
		return nil, fmt.Errorf("cex markets for %s: %w", slug, err)
	}
	rows := parseCEXRows(table, limit)
	s.log.Debugf("slug=%s cex rows=%d kept=%d", slug, len(table.Rows), len(rows))
	return rows, nil
}

// FetchTopDEX 切到 DEX 标签，选出流动性评分最高的交易对，再进入交易对页面读取实际流动性。
// 页面没有 DEX 标签时返回 nil。
func (s *Scraper) FetchTopDEX(ctx context.Context, slug string) (*market.DEXMarket, error) {
	var (
		hasTab bool
		table  pageTable
	)
	err := s.run(ctx, s.marketsURL(slug),
		chromedp.Evaluate(selectDEXTabJS, &hasTab),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !hasTab {
				return nil
			}
			return chromedp.Tasks{
				chromedp.Sleep(tabPause),
				chromedp.WaitReady("table", chromedp.ByQuery),
				chromedp.Evaluate(readTableJS, &table),
			}.Do(ctx)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dex market for %s: %w", slug, err)
	}
	if !hasTab {
		s.log.Debugf("slug=%s has no dex tab", slug)
		return nil, nil
	}
	top, link := parseTopDEX(table)
	if top == nil {
		return nil, nil
	}
	if link != "" {
		if liq := s.pairLiquidity(ctx, link); liq != "" {
			top.FinalLiquidity = liq
		}
	}
	return top, nil
}

// pairLiquidity 读取交易对页面上的 Liquidity 数值；失败时返回空串，调用方保留 N/A。
func (s *Scraper) pairLiquidity(ctx context.Context, link string) string {
	var value string
	err := s.run(ctx, link, chromedp.Evaluate(readPairLiquidityJS, &value))
	if err != nil {
		s.log.Warnf("pair liquidity %s: %v", link, err)
		return ""
	}
	return strings.TrimSpace(value)
}

// FetchOverview 读取概览页的市值与 24h 成交量。
func (s *Scraper) FetchOverview(ctx context.Context, slug string) (market.Overview, error) {
	var pairs []statPair
	err := s.run(ctx, s.overviewURL(slug),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(readStatsJS, &pairs),
	)
	if err != nil {
		return market.Overview{}, fmt.Errorf("overview for %s: %w", slug, err)
	}
	return parseOverview(pairs), nil
}

// run opens a fresh tab in the shared browser, loads url, waits for the page to settle, dismisses the
// consent banner and then executes actions. The tab is bounded by the page timeout
// and also torn down when ctx is cancelled.
func (s *Scraper) run(ctx context.Context, url string, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	browserCtx, err := s.browser()
	if err != nil {
		return err
	}
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.PageTimeout())
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.Sleep(s.cfg.Settle()),
		evalOptional(acceptConsentJS, consentPause),
	}
	tasks = append(tasks, actions...)
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w", market.ErrSourceUnavailable, url, err)
	}
	return nil
}

// evalOptional runs a click script and pauses only when it reports that something
// was clicked.
func evalOptional(script string, pause time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		err := chromedp.Evaluate(script, &clicked).Do(ctx)
		if err != nil || !clicked {
			return nil
		}
		return chromedp.Sleep(pause).Do(ctx)
	})
}
