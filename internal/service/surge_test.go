package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/pricing"
	"rideshare/internal/redis"
	"rideshare/internal/repository/memory"
)

// surgeCenter is the sampling point for surge tests. Offsets of 0.01
// degrees latitude are roughly 1.1 km, well inside the 5 km radius;
// 0.2 degrees is roughly 22 km, well outside.
var surgeCenter = geo.Point{Lat: 41.31, Lng: 69.28}

type surgeFixture struct {
	store     *memory.Store
	locations *MockLocationStore
	engine    *pricing.Engine
	surge     *SurgeService
}

func newSurgeFixture() *surgeFixture {
	store := memory.NewStore()
	locations := NewMockLocationStore()
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	surge := NewSurgeService(locations, store, engine, DefaultSurgeConfig())
	return &surgeFixture{
		store:     store,
		locations: locations,
		engine:    engine,
		surge:     surge,
	}
}

// openTripAt stores a PENDING trip departing from the given origin.
func (f *surgeFixture) openTripAt(t *testing.T, id string, origin geo.Point) {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	trip := &domain.Trip{
		ID:            id,
		PassengerID:   "passenger-1",
		Origin:        domain.Place{Label: "Origin", Point: origin},
		Destination:   domain.Place{Label: "Destination", Point: geo.Point{Lat: 41.26, Lng: 69.17}},
		DepartureTime: now.Add(time.Hour),
		Seats:         1,
		PricePerSeat:  domain.MoneyFromFloat(10),
		TotalCost:     domain.MoneyFromFloat(10),
		Status:        domain.TripStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.store.Create(context.Background(), trip); err != nil {
		t.Fatalf("create trip: %v", err)
	}
}

// driversAt seeds the supply index with n drivers near the center.
func (f *surgeFixture) driversAt(n int) {
	positions := make([]redis.DriverPosition, 0, n)
	for i := 0; i < n; i++ {
		positions = append(positions, redis.DriverPosition{
			DriverID: fmt.Sprintf("driver-%d", i),
			Point:    geo.Point{Lat: surgeCenter.Lat + 0.001*float64(i), Lng: surgeCenter.Lng},
		})
	}
	f.locations.SetPositions(positions)
}

// ──────────────────────────────────────────────
// DEMAND PRESSURE
// ──────────────────────────────────────────────

func TestSurgePressure_CountsLocalDemandAndSupply(t *testing.T) {
	t.Parallel()

	f := newSurgeFixture()
	ctx := context.Background()

	f.openTripAt(t, "trip-near-1", geo.Point{Lat: surgeCenter.Lat + 0.01, Lng: surgeCenter.Lng})
	f.openTripAt(t, "trip-near-2", geo.Point{Lat: surgeCenter.Lat - 0.01, Lng: surgeCenter.Lng})
	f.openTripAt(t, "trip-far", geo.Point{Lat: surgeCenter.Lat + 0.2, Lng: surgeCenter.Lng})

	// A claimed trip no longer adds demand.
	claimed := &domain.Trip{
		ID:          "trip-claimed",
		PassengerID: "passenger-2",
		Origin:      domain.Place{Point: surgeCenter},
		Status:      domain.TripStatusAwaitingPayment,
		CreatedAt:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := f.store.Create(ctx, claimed); err != nil {
		t.Fatalf("create trip: %v", err)
	}

	f.driversAt(3)

	demand, supply := f.surge.Pressure(ctx, surgeCenter)
	if demand != 2 {
		t.Errorf("expected demand 2, got %d", demand)
	}
	if supply != 3 {
		t.Errorf("expected supply 3, got %d", supply)
	}
}

func TestSurgePressure_FailsOpen(t *testing.T) {
	t.Parallel()

	f := newSurgeFixture()
	ctx := context.Background()

	f.openTripAt(t, "trip-1", surgeCenter)

	// An unreadable driver index reports the fallback supply, so a Redis
	// outage cannot inflate prices.
	f.locations.FindNearbyDriversError = ErrMockTimeout

	demand, supply := f.surge.Pressure(ctx, surgeCenter)
	if demand != 1 {
		t.Errorf("expected demand 1, got %d", demand)
	}
	if supply != DefaultSurgeConfig().FallbackSupply {
		t.Errorf("expected fallback supply %d, got %d", DefaultSurgeConfig().FallbackSupply, supply)
	}

	// An unreadable trip store reports zero demand.
	failing := &FailingTripRepository{TripRepository: f.store, GetOpenError: ErrMockDBDown}
	surge := NewSurgeService(NewMockLocationStore(), failing, f.engine, DefaultSurgeConfig())

	demand, supply = surge.Pressure(ctx, surgeCenter)
	if demand != 0 {
		t.Errorf("expected demand 0, got %d", demand)
	}
	if supply != 0 {
		t.Errorf("expected supply 0, got %d", supply)
	}
}

// ──────────────────────────────────────────────
// MULTIPLIER
// ──────────────────────────────────────────────

func TestSurgeRead_ClampsMultiplier(t *testing.T) {
	t.Parallel()

	f := newSurgeFixture()
	ctx := context.Background()

	// Quiet market: no pressure, no markup.
	reading := f.surge.Read(ctx, surgeCenter)
	if reading.Multiplier != 1.0 {
		t.Errorf("expected multiplier 1.0 for an empty market, got %f", reading.Multiplier)
	}

	// Eight trips chasing one driver clamps at the cap.
	for i := 0; i < 8; i++ {
		f.openTripAt(t, fmt.Sprintf("trip-%d", i), surgeCenter)
	}
	f.driversAt(1)

	reading = f.surge.Read(ctx, surgeCenter)
	if reading.Demand != 8 {
		t.Errorf("expected demand 8, got %d", reading.Demand)
	}
	if reading.Supply != 1 {
		t.Errorf("expected supply 1, got %d", reading.Supply)
	}
	if reading.Multiplier != 2.0 {
		t.Errorf("expected multiplier clamped to 2.0, got %f", reading.Multiplier)
	}

	if got := f.surge.Multiplier(ctx, surgeCenter); got != 2.0 {
		t.Errorf("expected multiplier 2.0, got %f", got)
	}
}

func TestSurgeReprice_ScalesFareNotFees(t *testing.T) {
	t.Parallel()

	f := newSurgeFixture()
	ctx := context.Background()

	// Four trips over two drivers doubles the fare.
	for i := 0; i < 4; i++ {
		f.openTripAt(t, fmt.Sprintf("trip-%d", i), surgeCenter)
	}
	f.driversAt(2)

	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	quote := f.engine.Quote(10.0, noon, 2, domain.VehicleTierStandard)

	repriced := f.surge.Reprice(ctx, quote, surgeCenter)

	if repriced.Total != domain.MoneyFromFloat(60) {
		t.Errorf("expected total 60.00, got %s", repriced.Total)
	}
	if repriced.PerSeat != domain.MoneyFromFloat(30) {
		t.Errorf("expected per-seat 30.00, got %s", repriced.PerSeat)
	}
	if repriced.DriverEarning != domain.MoneyFromFloat(51) {
		t.Errorf("expected driver earning 51.00, got %s", repriced.DriverEarning)
	}

	// Fees are computed from the base fare and stay put.
	if repriced.Commission != quote.Commission {
		t.Errorf("expected commission unchanged at %s, got %s", quote.Commission, repriced.Commission)
	}
	if repriced.InsuranceFee != quote.InsuranceFee {
		t.Errorf("expected insurance unchanged at %s, got %s", quote.InsuranceFee, repriced.InsuranceFee)
	}
}
