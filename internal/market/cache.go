package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// RedisCache keeps recently scraped market data under snapshot:{slug} with a TTL,
// so repeated links for the same token inside the window skip the browser.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL, password string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if password != "" {
		opt.Password = password
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return newRedisCache(client, ttl), nil
}

func newRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl, prefix: "snapshot:"}
}

func (c *RedisCache) key(slug string) string {
	return c.prefix + slug
}

func (c *RedisCache) Get(ctx context.Context, slug string) (MarketData, bool, error) {
	raw, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return MarketData{}, false, nil
		}
		return MarketData{}, false, fmt.Errorf("redis GET failed: %w", err)
	}
	var data MarketData
	if err := json.Unmarshal(raw, &data); err != nil {
		return MarketData{}, false, fmt.Errorf("json unmarshal failed: %w", err)
	}
	return data, true, nil
}

func (c *RedisCache) Put(ctx context.Context, slug string, data MarketData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
