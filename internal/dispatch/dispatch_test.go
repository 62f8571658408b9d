package dispatch

import (
	"strings"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/pricing"
)

var searchBase = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

// fiveOpenTrips builds the fixture used across search tests. Origins step
// north from the city center roughly 1.1km apart.
func fiveOpenTrips() []*domain.Trip {
	center := geo.Point{Lat: 51.1000, Lng: 71.4000}

	mk := func(id string, perSeat float64, seats int, departOffset time.Duration, originSteps int) *domain.Trip {
		return &domain.Trip{
			ID:            id,
			PassengerID:   "passenger-" + id,
			Origin:        domain.Place{Label: "origin-" + id, Point: geo.Point{Lat: center.Lat + float64(originSteps)*0.01, Lng: center.Lng}},
			Destination:   domain.Place{Label: "dest-" + id, Point: geo.Point{Lat: center.Lat + 1, Lng: center.Lng + 1}},
			DepartureTime: searchBase.Add(departOffset),
			Seats:         seats,
			PricePerSeat:  domain.MoneyFromFloat(perSeat),
			Status:        domain.TripStatusPending,
		}
	}

	return []*domain.Trip{
		mk("t1", 25.00, 2, 40*time.Minute, 1),
		mk("t2", 35.00, 3, 10*time.Minute, 0),
		mk("t3", 30.00, 1, 20*time.Minute, 2),
		mk("t4", 20.00, 4, 30*time.Minute, 4),
		mk("t5", 30.00, 2, 15*time.Minute, 3),
	}
}

func ids(trips []*domain.Trip) string {
	parts := make([]string, len(trips))
	for i, t := range trips {
		parts[i] = t.ID
	}
	return strings.Join(parts, ",")
}

func newSearcher() *Searcher {
	return NewSearcher(pricing.NewEngine(pricing.DefaultPolicy()))
}

func TestSearch_PriceAndSeatsFilter(t *testing.T) {
	t.Parallel()

	maxPrice := domain.MoneyFromFloat(30.00)
	filter := Filter{MaxPricePerSeat: &maxPrice, MinSeats: 2}

	got := newSearcher().Search(fiveOpenTrips(), filter, nil, "")

	// t2 is over the price ceiling, t3 is under the seat minimum; a
	// per-seat price of exactly 30.00 passes.
	if ids(got) != "t1,t4,t5" {
		t.Errorf("Search() = %s, want t1,t4,t5", ids(got))
	}
}

func TestSearch_TimeWindowFilter(t *testing.T) {
	t.Parallel()

	target := searchBase
	filter := Filter{DepartAround: &target, WindowMinutes: 20}

	got := newSearcher().Search(fiveOpenTrips(), filter, nil, "")

	// Offsets 10, 15 and exactly 20 minutes are inside ±20; 30 and 40
	// are not.
	if ids(got) != "t2,t3,t5" {
		t.Errorf("Search() = %s, want t2,t3,t5", ids(got))
	}
}

func TestSearch_OriginProximityFilter(t *testing.T) {
	t.Parallel()

	// 0.01 degrees of latitude is roughly 1.1km; a 2.5km radius around
	// the center reaches the trips one and two steps out.
	near := geo.Point{Lat: 51.1000, Lng: 71.4000}
	filter := Filter{OriginNear: &near, OriginRadiusM: 2500}

	got := newSearcher().Search(fiveOpenTrips(), filter, nil, "")

	if ids(got) != "t1,t2,t3" {
		t.Errorf("Search() = %s, want t1,t2,t3", ids(got))
	}
}

func TestSearch_SortByDeparture(t *testing.T) {
	t.Parallel()

	got := newSearcher().Search(fiveOpenTrips(), Filter{}, nil, SortDepartureAsc)

	if ids(got) != "t2,t5,t3,t4,t1" {
		t.Errorf("Search() = %s, want t2,t5,t3,t4,t1", ids(got))
	}
}

func TestSearch_SortByEarning(t *testing.T) {
	t.Parallel()

	got := newSearcher().Search(fiveOpenTrips(), Filter{}, nil, SortEarningDesc)

	// Expected totals: t2=105, t4=80, t5=60, t1=50, t3=30; the 15%
	// commission+insurance split preserves the ordering.
	if ids(got) != "t2,t4,t5,t1,t3" {
		t.Errorf("Search() = %s, want t2,t4,t5,t1,t3", ids(got))
	}
}

func TestSearch_SortByDistance(t *testing.T) {
	t.Parallel()

	driverLoc := geo.Point{Lat: 51.1000, Lng: 71.4000}
	got := newSearcher().Search(fiveOpenTrips(), Filter{}, &driverLoc, SortDistanceAsc)

	if ids(got) != "t2,t1,t3,t5,t4" {
		t.Errorf("Search() = %s, want t2,t1,t3,t5,t4", ids(got))
	}
}

func TestSearch_SortByDistanceWithoutLocationKeepsOrder(t *testing.T) {
	t.Parallel()

	got := newSearcher().Search(fiveOpenTrips(), Filter{}, nil, SortDistanceAsc)

	if ids(got) != "t1,t2,t3,t4,t5" {
		t.Errorf("Search() = %s, want input order t1,t2,t3,t4,t5", ids(got))
	}
}

func TestSearch_SortBySeats(t *testing.T) {
	t.Parallel()

	got := newSearcher().Search(fiveOpenTrips(), Filter{}, nil, SortSeatsDesc)

	// t1 and t5 both request 2 seats; stable sort keeps t1 first.
	if ids(got) != "t4,t2,t1,t5,t3" {
		t.Errorf("Search() = %s, want t4,t2,t1,t5,t3", ids(got))
	}
}

func TestSearch_StableOnTies(t *testing.T) {
	t.Parallel()

	trips := fiveOpenTrips()
	for _, trip := range trips {
		trip.DepartureTime = searchBase
	}

	got := newSearcher().Search(trips, Filter{}, nil, SortDepartureAsc)

	if ids(got) != "t1,t2,t3,t4,t5" {
		t.Errorf("Search() = %s, want input order on all-tied key", ids(got))
	}
}

func TestSearch_IdempotentAndPure(t *testing.T) {
	t.Parallel()

	searcher := newSearcher()
	trips := fiveOpenTrips()
	inputOrder := ids(trips)

	maxPrice := domain.MoneyFromFloat(30.00)
	filter := Filter{MaxPricePerSeat: &maxPrice, MinSeats: 2}

	first := searcher.Search(trips, filter, nil, SortEarningDesc)
	second := searcher.Search(trips, filter, nil, SortEarningDesc)

	if ids(first) != ids(second) {
		t.Errorf("same input produced different output: %s vs %s", ids(first), ids(second))
	}
	if ids(trips) != inputOrder {
		t.Errorf("Search reordered its input snapshot: %s", ids(trips))
	}
}

func TestExpectedEarning_UsesTotalWhenPriced(t *testing.T) {
	t.Parallel()

	searcher := newSearcher()

	trip := &domain.Trip{PricePerSeat: domain.MoneyFromFloat(25.00), Seats: 2}
	// Unpriced: 50.00 gross, 85% net.
	if got := searcher.ExpectedEarning(trip); got != domain.MoneyFromFloat(42.50) {
		t.Errorf("ExpectedEarning = %s, want 42.50", got)
	}

	trip.TotalCost = domain.MoneyFromFloat(100.00)
	if got := searcher.ExpectedEarning(trip); got != domain.MoneyFromFloat(85.00) {
		t.Errorf("ExpectedEarning = %s, want 85.00", got)
	}
}
