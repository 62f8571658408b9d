package redis

import (
	"context"
	"time"

	"rideshare/internal/geo"
)

// LocationStoreInterface defines the interface for the driver supply
// index.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, p geo.Point) error
	FindNearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64) ([]DriverPosition, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for cross-instance trip locks.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
