package di

import (
	"context"

	"bullion_backend/internal/platform/cache"
	"bullion_backend/internal/platform/config"
	"bullion_backend/internal/platform/scheduler"
)

// NewScheduler registers the daily cache purge. It returns nil when there is
// no cache to purge.
func NewScheduler(ctx context.Context, cached *cache.CachingPriceRepository, cfg *config.Config) (*scheduler.Scheduler, error) {
	if cached == nil || cfg.Cache.RefreshCron == "" {
		return nil, nil
	}
	s := scheduler.NewScheduler(ctx)
	if err := s.Register("cache-purge", cfg.Cache.RefreshCron, cached.Purge); err != nil {
		return nil, err
	}
	return s, nil
}
