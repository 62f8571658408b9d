package service

import (
	"context"
	"fmt"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/pricing"
	"rideshare/internal/repository"
)

// ReceiptService derives settlement receipts for completed trips. A
// receipt is never stored; it is recomputed from the trip and the
// pricing policy on every request.
type ReceiptService struct {
	repo   repository.TripRepository
	engine *pricing.Engine
	clock  Clock
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(repo repository.TripRepository, engine *pricing.Engine, clock Clock) *ReceiptService {
	return &ReceiptService{
		repo:   repo,
		engine: engine,
		clock:  clock,
	}
}

// Generate builds the receipt for a completed trip. The fare split is
// recomputed from the stored total, so the receipt matches what was
// settled at completion.
func (s *ReceiptService) Generate(ctx context.Context, tripID string) (*domain.Receipt, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}

	driverID := ""
	if trip.Driver != nil {
		driverID = trip.Driver.ID
	}

	return &domain.Receipt{
		TripID:           trip.ID,
		PassengerID:      trip.PassengerID,
		DriverID:         driverID,
		OriginLabel:      trip.Origin.Label,
		DestinationLabel: trip.Destination.Label,
		DepartureTime:    trip.DepartureTime,
		Seats:            trip.Seats,
		PricePerSeat:     trip.PricePerSeat,
		Total:            trip.TotalCost,
		Commission:       s.engine.Commission(trip.TotalCost),
		InsuranceFee:     s.engine.Insurance(trip.TotalCost),
		DriverEarning:    s.engine.DriverEarning(trip.TotalCost),
		DistanceKm:       geo.Distance(trip.Origin.Point, trip.Destination.Point) / 1000.0,
		CompletedAt:      trip.UpdatedAt,
		GeneratedAt:      s.clock.Now(),
	}, nil
}

// Format renders a receipt as printable text (for email/export).
func (s *ReceiptService) Format(r *domain.Receipt) string {
	return fmt.Sprintf(`=====================================
            TRIP RECEIPT
=====================================
Trip:     %s
Date:     %s

ROUTE
-------------------------------------
From:     %s
To:       %s
Distance: %.1f km
Seats:    %d

FARE
-------------------------------------
Per seat:       %s
Total:          %s

SETTLEMENT
-------------------------------------
Commission:     %s
Insurance:      %s
Driver payout:  %s
=====================================
`,
		r.TripID,
		r.CompletedAt.Format("Jan 02, 2006 3:04 PM"),
		r.OriginLabel,
		r.DestinationLabel,
		r.DistanceKm,
		r.Seats,
		r.PricePerSeat,
		r.Total,
		r.Commission,
		r.InsuranceFee,
		r.DriverEarning,
	)
}
