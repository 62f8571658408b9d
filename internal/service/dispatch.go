package service

import (
	"context"

	"rideshare/internal/dispatch"
	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// DispatchService serves the driver side of the marketplace: filtered,
// ranked search over open trips and a live feed of the open set.
type DispatchService struct {
	tripRepo repository.TripRepository
	stream   repository.TripStream
	searcher *dispatch.Searcher
	cache    *redis.CacheStore
}

// NewDispatchService creates a new DispatchService. cache may be nil;
// searches then always read the repository directly.
func NewDispatchService(
	tripRepo repository.TripRepository,
	stream repository.TripStream,
	searcher *dispatch.Searcher,
	cache *redis.CacheStore,
) *DispatchService {
	return &DispatchService{
		tripRepo: tripRepo,
		stream:   stream,
		searcher: searcher,
		cache:    cache,
	}
}

// SearchRequest contains the parameters for searching open trips.
type SearchRequest struct {
	Filter         dispatch.Filter
	SortBy         dispatch.Sort
	DriverLocation *geo.Point // Optional: enables distance ranking
}

// Search returns open trips matching the filter, ranked by the requested
// order.
func (s *DispatchService) Search(ctx context.Context, req SearchRequest) ([]*domain.Trip, error) {
	trips, err := s.openTrips(ctx)
	if err != nil {
		return nil, err
	}

	return s.searcher.Search(trips, req.Filter, req.DriverLocation, req.SortBy), nil
}

// Watch returns a channel of open-trip snapshots. The channel closes
// when ctx is done; slow consumers always see the latest snapshot.
func (s *DispatchService) Watch(ctx context.Context) <-chan []*domain.Trip {
	return s.stream.WatchOpen(ctx)
}

// ExpectedEarning returns what a driver would net for serving the trip.
func (s *DispatchService) ExpectedEarning(t *domain.Trip) domain.Money {
	return s.searcher.ExpectedEarning(t)
}

// openTrips reads the open set through the cache when one is wired.
func (s *DispatchService) openTrips(ctx context.Context) ([]*domain.Trip, error) {
	if s.cache != nil {
		cached, err := s.cache.GetOpenTrips(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	trips, err := s.tripRepo.GetOpen(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetOpenTrips(ctx, trips, redis.OpenTripsCacheTTL)
	}

	return trips, nil
}
