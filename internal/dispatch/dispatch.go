// Package dispatch implements the open-trip search a driver runs to find
// work: optional AND-combined filters over a snapshot of open trips,
// followed by a stable sort. Search is pure and repeatable; it never
// mutates its input, so re-running it on a fresh snapshot is the whole
// update model.
package dispatch

import (
	"sort"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/pricing"
)

// Sort selects the ordering of search results.
type Sort string

const (
	// SortDepartureAsc orders by departure time, soonest first.
	SortDepartureAsc Sort = "departure"
	// SortEarningDesc orders by expected driver earning, highest first.
	SortEarningDesc Sort = "earning"
	// SortDistanceAsc orders by distance from the driver to the trip
	// origin, closest first. Requires a driver location; without one the
	// filter order is kept.
	SortDistanceAsc Sort = "distance"
	// SortSeatsDesc orders by requested seat count, largest first.
	SortSeatsDesc Sort = "seats"
)

// Filter is the set of optional predicates a driver searches with. Unset
// predicates match everything; set predicates are AND-combined.
type Filter struct {
	// DepartAround keeps trips departing within WindowMinutes of this
	// time.
	DepartAround  *time.Time
	WindowMinutes int

	// OriginNear keeps trips whose origin is within OriginRadiusM meters.
	OriginNear    *geo.Point
	OriginRadiusM float64

	// DestinationNear keeps trips whose destination is within
	// DestinationRadiusM meters.
	DestinationNear    *geo.Point
	DestinationRadiusM float64

	// MaxPricePerSeat keeps trips at or under this per-seat price.
	MaxPricePerSeat *domain.Money

	// MinSeats keeps trips requesting at least this many seats.
	MinSeats int
}

// Match reports whether the trip satisfies every set predicate.
func (f Filter) Match(t *domain.Trip) bool {
	if f.DepartAround != nil {
		window := time.Duration(f.WindowMinutes) * time.Minute
		diff := t.DepartureTime.Sub(*f.DepartAround)
		if diff < 0 {
			diff = -diff
		}
		if diff > window {
			return false
		}
	}

	if f.OriginNear != nil && f.OriginRadiusM > 0 {
		if !geo.WithinRadius(*f.OriginNear, t.Origin.Point, f.OriginRadiusM) {
			return false
		}
	}

	if f.DestinationNear != nil && f.DestinationRadiusM > 0 {
		if !geo.WithinRadius(*f.DestinationNear, t.Destination.Point, f.DestinationRadiusM) {
			return false
		}
	}

	if f.MaxPricePerSeat != nil && t.PricePerSeat > *f.MaxPricePerSeat {
		return false
	}

	if f.MinSeats > 0 && t.Seats < f.MinSeats {
		return false
	}

	return true
}

// Searcher filters and orders open trips. It needs the pricing engine to
// rank by expected driver earning.
type Searcher struct {
	engine *pricing.Engine
}

// NewSearcher creates a Searcher using the given pricing engine.
func NewSearcher(engine *pricing.Engine) *Searcher {
	return &Searcher{engine: engine}
}

// Search returns the trips matching the filter, ordered by the chosen
// sort. Ties keep their input order.
func (s *Searcher) Search(trips []*domain.Trip, f Filter, driverLoc *geo.Point, sortBy Sort) []*domain.Trip {
	matched := make([]*domain.Trip, 0, len(trips))
	for _, t := range trips {
		if f.Match(t) {
			matched = append(matched, t)
		}
	}

	switch sortBy {
	case SortDepartureAsc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].DepartureTime.Before(matched[j].DepartureTime)
		})
	case SortEarningDesc:
		sort.SliceStable(matched, func(i, j int) bool {
			return s.ExpectedEarning(matched[i]) > s.ExpectedEarning(matched[j])
		})
	case SortDistanceAsc:
		if driverLoc == nil {
			break
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return geo.Distance(*driverLoc, matched[i].Origin.Point) < geo.Distance(*driverLoc, matched[j].Origin.Point)
		})
	case SortSeatsDesc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Seats > matched[j].Seats
		})
	}

	return matched
}

// ExpectedEarning estimates the driver's net earning for a trip: the
// trip's total when priced, otherwise per-seat price times seats, less
// commission and insurance.
func (s *Searcher) ExpectedEarning(t *domain.Trip) domain.Money {
	total := t.TotalCost
	if total == 0 {
		total = t.PricePerSeat.Times(t.Seats)
	}
	return s.engine.DriverEarning(total)
}
