package service

import (
	"context"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/pricing"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// SurgeService measures local demand pressure and applies it to quotes.
// Demand is the count of open trips departing near a point; supply is
// the count of available drivers in the same area.
type SurgeService struct {
	locationStore redis.LocationStoreInterface
	tripRepo      repository.TripRepository
	engine        *pricing.Engine
	config        SurgeConfig
}

// SurgeConfig contains demand-pricing configuration.
type SurgeConfig struct {
	RadiusKm       float64 // Radius to sample supply and demand
	FallbackSupply int     // Assumed supply when the driver index is unavailable
}

// DefaultSurgeConfig returns the default surge configuration.
func DefaultSurgeConfig() SurgeConfig {
	return SurgeConfig{
		RadiusKm:       5.0,
		FallbackSupply: 10,
	}
}

// NewSurgeService creates a new SurgeService.
func NewSurgeService(
	locationStore redis.LocationStoreInterface,
	tripRepo repository.TripRepository,
	engine *pricing.Engine,
	config SurgeConfig,
) *SurgeService {
	return &SurgeService{
		locationStore: locationStore,
		tripRepo:      tripRepo,
		engine:        engine,
		config:        config,
	}
}

// Pressure returns the open-trip demand and driver supply around a
// point. Both sides fail open: an unreadable driver index reports the
// fallback supply and an unreadable trip store reports zero demand, so
// an outage can never inflate prices.
func (s *SurgeService) Pressure(ctx context.Context, p geo.Point) (demand, supply int) {
	return s.countOpenTripsNearby(ctx, p), s.countDriversNearby(ctx, p)
}

// SurgeReading is one demand sample around a point.
type SurgeReading struct {
	Demand     int
	Supply     int
	Multiplier float64
}

// Read samples demand and supply around a point once and returns the
// resulting multiplier alongside the raw counts.
func (s *SurgeService) Read(ctx context.Context, p geo.Point) SurgeReading {
	demand, supply := s.Pressure(ctx, p)
	return SurgeReading{
		Demand:     demand,
		Supply:     supply,
		Multiplier: s.engine.SurgeMultiplier(float64(demand), float64(supply)),
	}
}

// Multiplier returns the current demand multiplier around a point.
func (s *SurgeService) Multiplier(ctx context.Context, p geo.Point) float64 {
	return s.Read(ctx, p).Multiplier
}

// Reprice applies the local demand multiplier around origin to a quote.
func (s *SurgeService) Reprice(ctx context.Context, b domain.PriceBreakdown, origin geo.Point) domain.PriceBreakdown {
	demand, supply := s.Pressure(ctx, origin)
	return s.engine.Reprice(b, float64(demand), float64(supply))
}

// countDriversNearby returns the number of available drivers within the
// configured radius.
func (s *SurgeService) countDriversNearby(ctx context.Context, p geo.Point) int {
	drivers, err := s.locationStore.FindNearbyDrivers(ctx, p, s.config.RadiusKm)
	if err != nil {
		return s.config.FallbackSupply
	}
	return len(drivers)
}

// countOpenTripsNearby returns the number of open trips departing within
// the configured radius.
func (s *SurgeService) countOpenTripsNearby(ctx context.Context, p geo.Point) int {
	trips, err := s.tripRepo.GetOpen(ctx)
	if err != nil {
		return 0
	}

	count := 0
	for _, trip := range trips {
		if geo.WithinRadius(trip.Origin.Point, p, s.config.RadiusKm*1000) {
			count++
		}
	}

	return count
}
