// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bullion_backend/internal/feature/prices/domain/entity"
	"bullion_backend/internal/feature/prices/usecase"
)

const defaultTTL = 5 * time.Minute

// CachingPriceRepository decorates a PriceRepository with Redis caching.
// Not-found results and errors are never cached.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// ttl is evaluated on every write; nil means a fixed 5 minutes, and a
// non-positive result also falls back to 5 minutes. If namespace is empty,
// it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl func() time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if ttl == nil {
		ttl = func() time.Duration { return defaultTTL }
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *CachingPriceRepository) FindSeries(ctx context.Context, vendor, category string) ([]entity.PriceObservation, error) {
	return readThrough(ctx, c, c.key("series", vendor, category), func() ([]entity.PriceObservation, error) {
		return c.inner.FindSeries(ctx, vendor, category)
	})
}

func (c *CachingPriceRepository) LatestAverage(ctx context.Context, prefix string) (entity.Average, error) {
	return readThrough(ctx, c, c.key("avg", prefix), func() (entity.Average, error) {
		return c.inner.LatestAverage(ctx, prefix)
	})
}

func (c *CachingPriceRepository) LatestSpot(ctx context.Context, category string) (entity.PriceObservation, error) {
	return readThrough(ctx, c, c.key("spot", category), func() (entity.PriceObservation, error) {
		return c.inner.LatestSpot(ctx, category)
	})
}

func (c *CachingPriceRepository) CheapestAtFullCoverage(ctx context.Context, category string) (entity.PriceObservation, error) {
	return readThrough(ctx, c, c.key("cheapest", category), func() (entity.PriceObservation, error) {
		return c.inner.CheapestAtFullCoverage(ctx, category)
	})
}

// Purge deletes every cached entry in the namespace. It is called when new
// prices are expected to have landed.
func (c *CachingPriceRepository) Purge(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

// readThrough checks the cache first, then falls back to load and stores
// the result (best effort).
func readThrough[T any](ctx context.Context, c *CachingPriceRepository, key string, load func() (T, error)) (T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("cache read failed", "key", key, "error", err)
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		return out, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		ttl := c.ttl()
		if ttl <= 0 {
			ttl = defaultTTL
		}
		_ = c.rdb.Set(ctx, key, b, ttl).Err()
	}

	return out, nil
}

// key generates a cache key for a specific query.
func (c *CachingPriceRepository) key(kind string, parts ...string) string {
	escaped := make([]string, 0, len(parts)+2)
	escaped = append(escaped, c.namespace, kind)
	for _, p := range parts {
		escaped = append(escaped, safe(p))
	}
	return strings.Join(escaped, ":")
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete keys: %w", err)
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe percent-encodes a key part. The encoding is injective and never
// emits ':' or glob metacharacters, so distinct inputs never share a key.
func safe(s string) string {
	return url.QueryEscape(s)
}
