package repository

import (
	"context"

	"rideshare/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetOpen retrieves all trips still open for acceptance (PENDING).
	GetOpen(ctx context.Context) ([]*domain.Trip, error)

	// GetAll retrieves all trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetActiveByDriverID retrieves the trip a driver is currently
	// assigned to, if any. Returns nil without error when the driver has
	// no active trip.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error)
}
