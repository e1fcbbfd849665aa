package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/agro-alert/internal/domain"
)

const readingKeyPrefix = "reading:"

// ReadingCache implements domain.ReadingCache on Redis with per-key TTLs,
// so stale readings expire on their own instead of needing a sweeper.
type ReadingCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewReadingCache creates a Redis-backed reading cache.
func NewReadingCache(client *redis.Client, logger *slog.Logger) *ReadingCache {
	return &ReadingCache{
		client: client,
		logger: logger.With("component", "reading_cache"),
	}
}

func readingKey(locationID string) string {
	return readingKeyPrefix + locationID
}

// Get returns the cached reading for a location, or (nil, nil) on a miss.
func (c *ReadingCache) Get(ctx context.Context, locationID string) (*domain.Reading, error) {
	raw, err := c.client.Get(ctx, readingKey(locationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached reading for %s: %w", locationID, err)
	}
	var reading domain.Reading
	if err := json.Unmarshal(raw, &reading); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten on
		// the next refresh.
		c.logger.Warn("corrupt cached reading, treating as miss", "location_id", locationID, "error", err)
		return nil, nil
	}
	return &reading, nil
}

// Put stores a reading with the given TTL.
func (c *ReadingCache) Put(ctx context.Context, reading domain.Reading, ttl time.Duration) error {
	raw, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshal reading for %s: %w", reading.LocationID, err)
	}
	if err := c.client.Set(ctx, readingKey(reading.LocationID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache reading for %s: %w", reading.LocationID, err)
	}
	return nil
}
