package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/geo"
)

const driverGeoKey = "drivers:geo"

// DriverPosition is a driver's last reported position in the supply
// index.
type DriverPosition struct {
	DriverID string
	Point    geo.Point
}

// LocationStore maintains the driver supply index in a Redis geo set.
// Dispatch surge levels and proximity lookups read from it; drivers feed
// it with periodic position updates.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a driver's position using GEOADD. Last write
// wins.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, p geo.Point) error {
	return s.client.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

// FindNearbyDrivers returns drivers within radiusKm of the point, closest
// first.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64) ([]DriverPosition, error) {
	results, err := s.client.GeoRadius(ctx, driverGeoKey, p.Lng, p.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	positions := make([]DriverPosition, 0, len(results))
	for _, r := range results {
		positions = append(positions, DriverPosition{
			DriverID: r.Name,
			Point:    geo.Point{Lat: r.Latitude, Lng: r.Longitude},
		})
	}

	return positions, nil
}

// RemoveLocation drops a driver from the supply index, typically when the
// driver goes offline.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverGeoKey, driverID).Err()
}
