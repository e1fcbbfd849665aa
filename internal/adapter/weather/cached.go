package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/agro-alert/internal/adapter/metrics"
	"github.com/user/agro-alert/internal/domain"
)

// CachedFetcher fronts a provider with the shared reading cache. The
// recurring weather-update jobs keep the cache warm, so rule checks are
// normally served without touching the upstream provider at all; a miss
// falls through to the provider and back-fills the cache.
type CachedFetcher struct {
	provider domain.WeatherFetcher
	cache    domain.ReadingCache
	logger   *slog.Logger
	metrics  *metrics.PipelineMetrics
	ttl      time.Duration
}

// NewCachedFetcher creates the caching decorator.
func NewCachedFetcher(provider domain.WeatherFetcher, cache domain.ReadingCache, logger *slog.Logger, m *metrics.PipelineMetrics, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		provider: provider,
		cache:    cache,
		logger:   logger.With("component", "cached_fetcher"),
		metrics:  m,
		ttl:      ttl,
	}
}

// FetchCurrentReading returns the cached reading when present, otherwise
// fetches from the provider and back-fills the cache. Cache errors degrade
// to a provider fetch; provider errors propagate for the job layer to
// retry.
func (f *CachedFetcher) FetchCurrentReading(ctx context.Context, locationID string) (domain.Reading, error) {
	cached, err := f.cache.Get(ctx, locationID)
	if err != nil {
		f.logger.Warn("reading cache unavailable, falling back to provider",
			"location_id", locationID, "error", err)
	} else if cached != nil {
		f.metrics.WeatherFetchTotal.WithLabelValues("cache_hit").Inc()
		return *cached, nil
	}

	reading, err := f.provider.FetchCurrentReading(ctx, locationID)
	if err != nil {
		f.metrics.WeatherFetchTotal.WithLabelValues("error").Inc()
		return domain.Reading{}, err
	}
	f.metrics.WeatherFetchTotal.WithLabelValues("provider").Inc()

	if err := f.cache.Put(ctx, reading, f.ttl); err != nil {
		// Best effort: the reading is already in hand.
		f.logger.Warn("failed to back-fill reading cache", "location_id", locationID, "error", err)
	}
	return reading, nil
}
