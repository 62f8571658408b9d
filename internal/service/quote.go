package service

import (
	"context"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/pricing"
)

// quoteAvgSpeedKmh is the assumed average trip speed for ETA estimates.
const quoteAvgSpeedKmh = 45.0

// PricingService produces fare quotes for a route before a trip is
// published.
type PricingService struct {
	engine *pricing.Engine
	surge  *SurgeService
	clock  Clock
}

// NewPricingService creates a new PricingService. surge may be nil;
// quotes then never carry a demand multiplier.
func NewPricingService(engine *pricing.Engine, surge *SurgeService, clock Clock) *PricingService {
	return &PricingService{
		engine: engine,
		surge:  surge,
		clock:  clock,
	}
}

// QuoteRequest contains the parameters for a fare quote.
type QuoteRequest struct {
	Origin        geo.Point
	Destination   geo.Point
	DepartureTime time.Time          // Optional: defaults to now
	Seats         int
	Tier          domain.VehicleTier // Optional: defaults to STANDARD
	WithSurge     bool
}

// QuoteResponse contains a fare quote for a route.
type QuoteResponse struct {
	Breakdown  domain.PriceBreakdown
	DistanceKm float64
	ETAMinutes int
}

// Quote prices a route for the given departure time, seat count and
// vehicle tier. With WithSurge set, the local demand multiplier around
// the origin is applied on top.
func (s *PricingService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if !req.Origin.Valid() || !req.Destination.Valid() {
		return nil, ErrInvalidLocation
	}

	if req.Seats < 1 {
		return nil, ErrInvalidSeatCount
	}

	departure := req.DepartureTime
	if departure.IsZero() {
		departure = s.clock.Now()
	}

	tier := req.Tier
	if tier == "" {
		tier = domain.VehicleTierStandard
	}

	distanceM := geo.Distance(req.Origin, req.Destination)
	breakdown := s.engine.Quote(distanceM/1000.0, departure, req.Seats, tier)

	if req.WithSurge && s.surge != nil {
		breakdown = s.surge.Reprice(ctx, breakdown, req.Origin)
	}

	return &QuoteResponse{
		Breakdown:  breakdown,
		DistanceKm: distanceM / 1000.0,
		ETAMinutes: geo.ETAMinutes(distanceM, quoteAvgSpeedKmh),
	}, nil
}
