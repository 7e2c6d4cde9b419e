// Package quotecache keeps recent delivery quotes in Redis as an advisory
// speed-up for read paths. Entries are short-lived and never substitute for
// the authoritative recompute inside a write path; any cache failure
// degrades to a recompute.
package quotecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cart-service/internal/domain/delivery"
	"cart-service/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, func(), error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}

	return rdb, cleanup, nil
}

type RedisQuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisQuoteCache(rdb *redis.Client, ttl time.Duration) *RedisQuoteCache {
	return &RedisQuoteCache{rdb: rdb, ttl: ttl}
}

// key builds the cache key from everything a quote depends on.
func key(destination, methodCode string, itemQuantity int64) string {
	return fmt.Sprintf("quote:%s:%s:%d", strings.ToLower(strings.TrimSpace(destination)), methodCode, itemQuantity)
}

func (c *RedisQuoteCache) Get(ctx context.Context, destination, methodCode string, itemQuantity int64) (*delivery.Quote, bool) {
	k := key(destination, methodCode, itemQuantity)
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("quote cache read failed", "key", k, "error", err)
		}
		return nil, false
	}

	var quote delivery.Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		slog.Warn("quote cache entry corrupted", "key", k, "error", err)
		return nil, false
	}

	return &quote, true
}

func (c *RedisQuoteCache) Set(ctx context.Context, destination, methodCode string, itemQuantity int64, quote *delivery.Quote) {
	raw, err := json.Marshal(quote)
	if err != nil {
		return
	}
	k := key(destination, methodCode, itemQuantity)
	if err := c.rdb.Set(ctx, k, raw, c.ttl).Err(); err != nil {
		slog.Warn("quote cache write failed", "key", k, "error", err)
	}
}
