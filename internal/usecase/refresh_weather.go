package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

// RefreshWeatherUseCase handles weather-update jobs: it pulls a fresh
// reading from the upstream provider and stores it in the shared cache so
// subsequent rule checks read from there.
type RefreshWeatherUseCase struct {
	provider domain.WeatherFetcher
	cache    domain.ReadingCache
	logger   *slog.Logger
	ttl      time.Duration
}

// NewRefreshWeatherUseCase creates the refresher. The provider here must be
// the raw upstream client, not the cached fetcher, or refreshes would be
// served stale from the very cache they are meant to fill.
func NewRefreshWeatherUseCase(provider domain.WeatherFetcher, cache domain.ReadingCache, logger *slog.Logger, ttl time.Duration) *RefreshWeatherUseCase {
	return &RefreshWeatherUseCase{
		provider: provider,
		cache:    cache,
		logger:   logger.With("component", "refresh_weather"),
		ttl:      ttl,
	}
}

// Execute refreshes one location. Provider and cache failures propagate as
// retryable job errors.
func (uc *RefreshWeatherUseCase) Execute(ctx context.Context, p domain.WeatherUpdatePayload) error {
	reading, err := uc.provider.FetchCurrentReading(ctx, p.LocationID)
	if err != nil {
		return fmt.Errorf("refresh location %s: %w", p.LocationID, err)
	}
	if err := uc.cache.Put(ctx, reading, uc.ttl); err != nil {
		return fmt.Errorf("cache reading for location %s: %w", p.LocationID, err)
	}
	uc.logger.Debug("reading refreshed", "location_id", p.LocationID, "observed_at", reading.Timestamp)
	return nil
}
