// Package coins resolves a listing slug to token identity through the
// CoinMarketCap pro API.
package coins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
	"github.com/johncarlocaintic/VictusGlobal/internal/market"
	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/circuit"

	"github.com/tidwall/gjson"
)

const infoPath = "/v2/cryptocurrency/info"

var (
	// ErrNotFound 表示 API 正常响应但没有该 slug 对应的币种。
	ErrNotFound = errors.New("token not found")
	// ErrNoAPIKey means the resolver was built without credentials.
	ErrNoAPIKey = errors.New("cmc api key not configured")
)

// Resolver looks up token identity by listing slug.
type Resolver interface {
	Resolve(ctx context.Context, slug string) (market.Identity, error)
}

// CMCResolver 调用 /v2/cryptocurrency/info：先按 slug 查询，没有结果再按大写 symbol 查询。
type CMCResolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *circuit.CircuitBreaker
	log     *logger.Component
}

func NewCMCResolver(cfg config.CMCConfig, breaker *circuit.CircuitBreaker) *CMCResolver {
	if breaker == nil {
		breaker = circuit.NewCircuitBreaker("cmc", cfg.BreakerThreshold, cfg.BreakerCooldown())
	}
	return &CMCResolver{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &http.Client{Timeout: cfg.Timeout()},
		breaker: breaker,
		log:     logger.With("cmc"),
	}
}

func (r *CMCResolver) Resolve(ctx context.Context, slug string) (market.Identity, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return market.Identity{}, ErrNotFound
	}
	if r.apiKey == "" {
		return market.Identity{}, ErrNoAPIKey
	}
	var id market.Identity
	err := r.breaker.Do(func() error {
		var err error
		id, err = r.lookup(ctx, url.Values{"slug": {strings.ToLower(slug)}})
		if errors.Is(err, ErrNotFound) {
			id, err = r.lookup(ctx, url.Values{"symbol": {strings.ToUpper(slug)}})
		}
		return err
	}, func(err error) bool { return errors.Is(err, ErrNotFound) })
	if err != nil {
		return market.Identity{}, fmt.Errorf("resolve %s: %w", slug, err)
	}
	r.log.Debugf("slug=%s name=%s symbol=%s platform=%s", slug, id.Name, id.Symbol, id.Platform)
	return id, nil
}

func (r *CMCResolver) lookup(ctx context.Context, params url.Values) (market.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+infoPath+"?"+params.Encode(), nil)
	if err != nil {
		return market.Identity{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return market.Identity{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return market.Identity{}, fmt.Errorf("reading response: %w", err)
	}
	// CMC 对未知 slug/symbol 返回 400 且 error_code=400。
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return market.Identity{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "status.error_message").String()
		return market.Identity{}, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return market.Identity{}, fmt.Errorf("invalid json response")
	}
	entry, ok := firstEntry(gjson.GetBytes(body, "data"))
	if !ok {
		return market.Identity{}, ErrNotFound
	}
	return market.Identity{
		Name:            entry.Get("name").String(),
		Symbol:          entry.Get("symbol").String(),
		ContractAddress: entry.Get("platform.token_address").String(),
		Platform:        entry.Get("platform.name").String(),
	}, nil
}

// firstEntry returns the first token object under data. Slug lookups key data by
// id with object values; symbol lookups key it by symbol with array values.
func firstEntry(data gjson.Result) (gjson.Result, bool) {
	var found gjson.Result
	data.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			value = value.Get("0")
		}
		if value.IsObject() && value.Get("id").Exists() {
			found = value
			return false
		}
		return true
	})
	return found, found.Exists()
}
