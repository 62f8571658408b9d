package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
)

// OpenTripsCacheTTL bounds how stale a cached open-trip snapshot may be.
// Dispatch tolerates a sub-second staleness window, so the TTL doubles as
// the invalidation strategy; there is no explicit invalidation on write.
const OpenTripsCacheTTL = time.Second

const openTripsCacheKey = "cache:trips:open"

// CacheStore caches the open-trip snapshot in Redis, shielding the
// database from the dispatch search hot path.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetOpenTrips retrieves the cached open-trip snapshot. Returns nil
// without error on cache miss.
func (s *CacheStore) GetOpenTrips(ctx context.Context) ([]*domain.Trip, error) {
	data, err := s.client.Get(ctx, openTripsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trips []*domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// SetOpenTrips stores the open-trip snapshot with the given TTL. An
// empty set is cached as an empty list so it still reads as a hit.
func (s *CacheStore) SetOpenTrips(ctx context.Context, trips []*domain.Trip, ttl time.Duration) error {
	if trips == nil {
		trips = []*domain.Trip{}
	}
	data, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, openTripsCacheKey, data, ttl).Err()
}
