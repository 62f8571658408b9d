package service

import (
	"context"

	"rideshare/internal/geo"
	"rideshare/internal/redis"
)

// defaultNearbyRadiusKm is used when a nearby-driver query gives no radius.
const defaultNearbyRadiusKm = 5.0

// DriverService handles driver presence: the real-time supply index and
// position reports on active trips.
type DriverService struct {
	locationStore redis.LocationStoreInterface
	trips         *TripService
}

// NewDriverService creates a new DriverService.
func NewDriverService(locationStore redis.LocationStoreInterface, trips *TripService) *DriverService {
	return &DriverService{
		locationStore: locationStore,
		trips:         trips,
	}
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	DriverID string
	Location geo.Point
	TripID   string // Optional: also record the position on this trip
}

// UpdateLocation updates a driver's position in the supply index and,
// when a trip is named, records it on that trip for passenger tracking.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}

	if !req.Location.Valid() {
		return ErrInvalidLocation
	}

	// The supply index is the primary real-time store; update it first.
	if err := s.locationStore.UpdateLocation(ctx, req.DriverID, req.Location); err != nil {
		return err
	}

	if req.TripID != "" && s.trips != nil {
		if _, err := s.trips.UpdateDriverLocation(ctx, UpdateTripLocationRequest{
			TripID:   req.TripID,
			DriverID: req.DriverID,
			Location: req.Location,
		}); err != nil {
			return err
		}
	}

	return nil
}

// SetOffline removes a driver from the supply index.
func (s *DriverService) SetOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	return s.locationStore.RemoveLocation(ctx, driverID)
}

// FindNearby returns available drivers within radiusKm of a point,
// nearest first. A non-positive radius falls back to the default.
func (s *DriverService) FindNearby(ctx context.Context, p geo.Point, radiusKm float64) ([]redis.DriverPosition, error) {
	if !p.Valid() {
		return nil, ErrInvalidLocation
	}

	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}

	return s.locationStore.FindNearbyDrivers(ctx, p, radiusKm)
}
