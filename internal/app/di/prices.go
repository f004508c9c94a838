// Package di provides dependency injection factories for creating application components.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bullion_backend/internal/feature/prices/adapters"
	"bullion_backend/internal/feature/prices/usecase"
	"bullion_backend/internal/platform/cache"
	"bullion_backend/internal/platform/config"
)

// NewPriceRepository creates a PriceRepository implementation.
// If Redis is available, the SQL repository is wrapped with a read-through
// cache and the cache is returned for purging. Otherwise, it falls back to
// the SQL repository and a nil cache.
func NewPriceRepository(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (usecase.PriceRepository, *cache.CachingPriceRepository, error) {
	repo := adapters.NewPriceRepository(db, cfg.Average.ExcludedCategories)
	if rdb == nil {
		return repo, nil, nil
	}

	loc, err := cfg.RefreshLocation()
	if err != nil {
		return nil, nil, err
	}
	ttl := cache.TTLUntilNextRefresh(cfg.Cache.RefreshHour, loc)
	cached := cache.NewCachingPriceRepository(rdb, ttl, repo, cfg.Cache.Namespace)
	return cached, cached, nil
}
