package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Cache stores the Source part of a snapshot per slug.
type Cache interface {
	Get(ctx context.Context, slug string) (MarketData, bool, error)
	Put(ctx context.Context, slug string, data MarketData) error
}

// Assembler builds snapshots from a Source, fetching the three views concurrently.
type Assembler struct {
	source   Source
	cache    Cache
	cexLimit int
	timeout  time.Duration
	log      *logger.Component
}

// AssemblerOption customises an Assembler.
type AssemblerOption func(*Assembler)

// WithCache enables snapshot caching. A nil cache is ignored.
func WithCache(c Cache) AssemblerOption {
	return func(a *Assembler) { a.cache = c }
}

// WithCEXLimit overrides how many CEX rows are kept.
func WithCEXLimit(limit int) AssemblerOption {
	return func(a *Assembler) {
		if limit > 0 {
			a.cexLimit = limit
		}
	}
}

// WithFetchTimeout bounds one full assembly.
func WithFetchTimeout(d time.Duration) AssemblerOption {
	return func(a *Assembler) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func NewAssembler(src Source, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		source:   src,
		cexLimit: DefaultCEXLimit,
		log:      logger.With("market"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Assemble fetches (or loads from cache) the market data of slug and merges it with id.
// Any Source failure aborts the whole assembly.
func (a *Assembler) Assemble(ctx context.Context, slug string, id Identity) (Snapshot, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Snapshot{}, fmt.Errorf("empty slug")
	}
	if a == nil || a.source == nil {
		return Snapshot{}, fmt.Errorf("market source not configured")
	}
	data, err := a.marketData(ctx, slug)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(slug, id, data), nil
}

func (a *Assembler) marketData(ctx context.Context, slug string) (MarketData, error) {
	if a.cache != nil {
		data, ok, err := a.cache.Get(ctx, slug)
		switch {
		case err != nil:
			a.log.Warnf("snapshot cache read failed slug=%s err=%v", slug, err)
		case ok:
			a.log.Debugf("snapshot cache hit slug=%s", slug)
			return data, nil
		}
	}
	data, err := a.fetch(ctx, slug)
	if err != nil {
		return MarketData{}, err
	}
	if a.cache != nil {
		if err := a.cache.Put(ctx, slug, data); err != nil {
			a.log.Warnf("snapshot cache write failed slug=%s err=%v", slug, err)
		}
	}
	return data, nil
}

func (a *Assembler) fetch(ctx context.Context, slug string) (MarketData, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()
	var (
		cex      []CEXMarket
		dex      *DEXMarket
		overview Overview
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := a.source.FetchCEXMarkets(gctx, slug, a.cexLimit)
		if err != nil {
			return fmt.Errorf("fetch cex markets for %s: %w", slug, err)
		}
		cex = FilterListedCEX(rows, a.cexLimit)
		return nil
	})
	group.Go(func() error {
		top, err := a.source.FetchTopDEX(gctx, slug)
		if err != nil {
			return fmt.Errorf("fetch top dex for %s: %w", slug, err)
		}
		dex = top
		return nil
	})
	group.Go(func() error {
		ov, err := a.source.FetchOverview(gctx, slug)
		if err != nil {
			return fmt.Errorf("fetch overview for %s: %w", slug, err)
		}
		overview = ov
		return nil
	})
	if err := group.Wait(); err != nil {
		return MarketData{}, err
	}
	a.log.Infof("market data fetched slug=%s source=%s cex=%d dex=%t dur=%s",
		slug, a.source.Name(), len(cex), dex != nil, time.Since(start).Round(time.Millisecond))
	return MarketData{CEX: cex, DEX: dex, Overview: overview}, nil
}
