package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/keylock"
	"rideshare/internal/pricing"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// tripLockTTL bounds how long a crashed instance can hold the
// cross-instance accept lock for a trip.
const tripLockTTL = 10 * time.Second

// TripService owns the trip lifecycle. Every mutation of one trip
// serializes on a per-trip lock and re-reads the stored state before
// committing, so concurrent operations resolve to exactly one winner
// and every loser sees an explicit error.
type TripService struct {
	repo      repository.TripRepository
	wallet    *WalletService
	engine    *pricing.Engine
	notifier  Notifier
	clock     Clock
	locks     *keylock.Table
	lockStore redis.LockStoreInterface
}

// NewTripService creates a new TripService. lockStore may be nil when
// running single-instance; the in-process lock table still serializes
// accepts within the node.
func NewTripService(
	repo repository.TripRepository,
	wallet *WalletService,
	engine *pricing.Engine,
	notifier Notifier,
	clock Clock,
	lockStore redis.LockStoreInterface,
) *TripService {
	return &TripService{
		repo:      repo,
		wallet:    wallet,
		engine:    engine,
		notifier:  notifier,
		clock:     clock,
		locks:     keylock.New(),
		lockStore: lockStore,
	}
}

// CreateTripRequest contains the parameters for publishing a trip.
type CreateTripRequest struct {
	PassengerID      string
	PassengerName    string
	PassengerPhone   string
	OriginLabel      string
	Origin           geo.Point
	DestinationLabel string
	Destination      geo.Point
	DepartureTime    time.Time
	Seats            int
	PricePerSeat     domain.Money
	Notes            string
}

// Create publishes a new trip in PENDING state.
func (s *TripService) Create(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	if req.Seats < 1 {
		return nil, ErrInvalidSeatCount
	}

	if req.PricePerSeat <= 0 {
		return nil, ErrInvalidPrice
	}

	if !req.Origin.Valid() || !req.Destination.Valid() {
		return nil, ErrInvalidLocation
	}

	now := s.clock.Now()
	if !req.DepartureTime.After(now) {
		return nil, ErrDepartureInPast
	}

	trip := &domain.Trip{
		ID:             uuid.New().String(),
		PassengerID:    req.PassengerID,
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		Origin: domain.Place{
			Label: req.OriginLabel,
			Point: req.Origin,
		},
		Destination: domain.Place{
			Label: req.DestinationLabel,
			Point: req.Destination,
		},
		DepartureTime: req.DepartureTime,
		Seats:         req.Seats,
		PricePerSeat:  req.PricePerSeat,
		TotalCost:     req.PricePerSeat.Times(req.Seats),
		Notes:         req.Notes,
		Status:        domain.TripStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, trip.PassengerID, EventTripCreated, map[string]any{
			"trip_id": trip.ID,
			"status":  string(trip.Status),
		})
	}

	return trip, nil
}

// AcceptTripRequest contains the parameters for a driver claiming a trip.
type AcceptTripRequest struct {
	TripID         string
	DriverID       string
	DriverName     string
	DriverPhone    string
	DriverLocation *geo.Point // Optional: driver's position at accept time
}

// Accept claims a PENDING trip for a driver. One driver serves all
// requested seats, so acceptance moves the trip straight to
// AWAITING_PAYMENT in a single committed write. When several drivers
// race for the same trip exactly one wins; the rest get
// ErrTripAlreadyAccepted and the stored trip is untouched by their
// attempts.
func (s *TripService) Accept(ctx context.Context, req AcceptTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	// Check if driver already has an active trip.
	existing, err := s.repo.GetActiveByDriverID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, ErrDriverHasActiveTrip
	}

	// Cross-instance guard first, then the in-process lock.
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireTripLock(ctx, req.TripID, tripLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, ErrTripAlreadyAccepted
		}
		defer func() {
			_ = s.lockStore.ReleaseTripLock(ctx, req.TripID)
		}()
	}

	s.locks.Lock(req.TripID)
	defer s.locks.Unlock(req.TripID)

	trip, err := s.repo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	// Verify under the lock, then commit.
	if trip.Status != domain.TripStatusPending {
		if trip.Driver != nil {
			return nil, ErrTripAlreadyAccepted
		}
		return nil, &TransitionError{From: trip.Status, Attempted: domain.TripStatusAccepted}
	}

	now := s.clock.Now()
	trip.Driver = &domain.DriverRef{
		ID:    req.DriverID,
		Name:  req.DriverName,
		Phone: req.DriverPhone,
	}
	if req.DriverLocation != nil && req.DriverLocation.Valid() {
		trip.DriverLocation = &domain.TrackPoint{Point: *req.DriverLocation, At: now}
	}
	trip.Status = domain.TripStatusAwaitingPayment
	trip.UpdatedAt = now

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, trip.PassengerID, EventTripAccepted, map[string]any{
			"trip_id":   trip.ID,
			"driver_id": req.DriverID,
			"status":    string(trip.Status),
		})
	}

	return trip, nil
}

// PayTripRequest contains the parameters for paying for a trip.
type PayTripRequest struct {
	TripID string
}

// PayTripResponse contains the result of paying for a trip.
type PayTripResponse struct {
	Trip    *domain.Trip
	Payment *domain.LedgerEntry
}

// Pay debits the passenger's wallet for the trip's total cost and moves
// the trip to PAID. The debit and the status write succeed or fail
// together: a failed debit leaves the trip in AWAITING_PAYMENT, and a
// failed status write refunds the debit.
func (s *TripService) Pay(ctx context.Context, req PayTripRequest) (*PayTripResponse, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	s.locks.Lock(req.TripID)
	defer s.locks.Unlock(req.TripID)

	trip, err := s.repo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(trip.Status, domain.TripStatusPaid) {
		return nil, &TransitionError{From: trip.Status, Attempted: domain.TripStatusPaid}
	}

	// The account lock nests inside the trip lock here. All flows take
	// trip before account, so the order cannot invert.
	entry, err := s.wallet.Debit(ctx, DebitRequest{
		OwnerID: trip.PassengerID,
		Amount:  trip.TotalCost,
		TripID:  trip.ID,
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) && s.notifier != nil {
			_ = s.notifier.Notify(ctx, trip.PassengerID, EventPaymentFailed, map[string]any{
				"trip_id": trip.ID,
				"amount":  trip.TotalCost.String(),
			})
		}
		return nil, err
	}

	trip.Status = domain.TripStatusPaid
	trip.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, trip); err != nil {
		// The debit committed but the status write did not; compensate
		// so the failure leaves no partial state behind.
		if _, refundErr := s.wallet.Refund(ctx, entry.ID); refundErr != nil {
			log.Printf("compensating refund failed for trip %s entry %s: %v", trip.ID, entry.ID, refundErr)
		}
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, trip.PassengerID, EventTripPaid, map[string]any{
			"trip_id": trip.ID,
			"amount":  trip.TotalCost.String(),
		})
		if trip.Driver != nil {
			_ = s.notifier.Notify(ctx, trip.Driver.ID, EventTripPaid, map[string]any{
				"trip_id": trip.ID,
			})
		}
	}

	return &PayTripResponse{Trip: trip, Payment: entry}, nil
}

// StartTripRequest contains the parameters for starting a paid trip.
type StartTripRequest struct {
	TripID   string
	DriverID string
}

// Start moves a PAID trip to IN_PROGRESS. Only the assigned driver can
// start the trip.
func (s *TripService) Start(ctx context.Context, req StartTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	s.locks.Lock(req.TripID)
	defer s.locks.Unlock(req.TripID)

	trip, err := s.repo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(trip.Status, domain.TripStatusInProgress) {
		return nil, &TransitionError{From: trip.Status, Attempted: domain.TripStatusInProgress}
	}

	if trip.Driver == nil || trip.Driver.ID != req.DriverID {
		return nil, ErrNotAssignedDriver
	}

	trip.Status = domain.TripStatusInProgress
	trip.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, trip.PassengerID, EventTripStarted, map[string]any{
			"trip_id": trip.ID,
		})
	}

	return trip, nil
}

// CompleteTripRequest contains the parameters for completing a trip.
type CompleteTripRequest struct {
	TripID   string
	DriverID string
}

// CompleteTripResponse contains the completed trip and its settlement.
// Earning is nil when the settlement credit is skipped or fails; the
// trip is completed either way and the credit can be replayed.
type CompleteTripResponse struct {
	Trip          *domain.Trip
	Earning       *domain.LedgerEntry
	Commission    domain.Money
	InsuranceFee  domain.Money
	DriverEarning domain.Money
}

// Complete ends a trip and settles the driver's earning: the total
// minus platform commission and insurance is credited to the driver's
// wallet. Settlement only happens for trips that were actually paid.
func (s *TripService) Complete(ctx context.Context, req CompleteTripRequest) (*CompleteTripResponse, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	s.locks.Lock(req.TripID)
	defer s.locks.Unlock(req.TripID)

	trip, err := s.repo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(trip.Status, domain.TripStatusCompleted) {
		return nil, &TransitionError{From: trip.Status, Attempted: domain.TripStatusCompleted}
	}

	if trip.Driver == nil || trip.Driver.ID != req.DriverID {
		return nil, ErrNotAssignedDriver
	}

	settle := trip.Status == domain.TripStatusInProgress

	trip.Status = domain.TripStatusCompleted
	trip.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}

	resp := &CompleteTripResponse{Trip: trip}

	if settle {
		resp.Commission = s.engine.Commission(trip.TotalCost)
		resp.InsuranceFee = s.engine.Insurance(trip.TotalCost)
		resp.DriverEarning = s.engine.DriverEarning(trip.TotalCost)

		earning, err := s.wallet.Credit(ctx, CreditRequest{
			OwnerID: req.DriverID,
			Amount:  resp.DriverEarning,
			TripID:  trip.ID,
		})
		if err != nil {
			// Trip is completed; the credit can be retried later.
			log.Printf("settlement credit failed for trip %s: %v", trip.ID, err)
		} else {
			resp.Earning = earning
			if s.notifier != nil {
				_ = s.notifier.Notify(ctx, req.DriverID, EventEarningSettled, map[string]any{
					"trip_id": trip.ID,
					"amount":  resp.DriverEarning.String(),
				})
			}
		}
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, trip.PassengerID, EventTripCompleted, map[string]any{
			"trip_id": trip.ID,
		})
	}

	return resp, nil
}

// CancelTripRequest contains the parameters for cancelling a trip.
type CancelTripRequest struct {
	TripID      string
	CancelledBy string // Optional: passenger or assigned driver ID
	Reason      string
}

// Cancel cancels a trip that has not been paid yet. Cancellation
// releases the assigned driver, so an interrupted accept leaves the
// trip claimable again.
func (s *TripService) Cancel(ctx context.Context, req CancelTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	s.locks.Lock(req.TripID)
	defer s.locks.Unlock(req.TripID)

	trip, err := s.repo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(trip.Status, domain.TripStatusCancelled) {
		return nil, &TransitionError{From: trip.Status, Attempted: domain.TripStatusCancelled}
	}

	if req.CancelledBy != "" && req.CancelledBy != trip.PassengerID {
		if trip.Driver == nil || trip.Driver.ID != req.CancelledBy {
			return nil, ErrNotAssignedDriver
		}
	}

	// Notify the other party before the driver reference is cleared.
	recipient := trip.PassengerID
	if req.CancelledBy == trip.PassengerID && trip.Driver != nil {
		recipient = trip.Driver.ID
	}

	trip.Status = domain.TripStatusCancelled
	trip.CancelReason = req.Reason
	trip.Driver = nil
	trip.DriverLocation = nil
	trip.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, recipient, EventTripCancelled, map[string]any{
			"trip_id":      trip.ID,
			"cancelled_by": req.CancelledBy,
			"reason":       req.Reason,
		})
	}

	return trip, nil
}

// UpdateTripLocationRequest contains the parameters for reporting the
// assigned driver's position on a trip.
type UpdateTripLocationRequest struct {
	TripID   string
	DriverID string
	Location geo.Point
	At       time.Time // Optional: defaults to now
}

// UpdateDriverLocation records the assigned driver's latest position on
// an active trip. Reports that are not newer than the stored position
// are dropped, so out-of-order delivery cannot move the marker
// backwards.
func (s *TripService) UpdateDriverLocation(ctx context.Context, req UpdateTripLocationRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	if !req.Location.Valid() {
		return nil, ErrInvalidLocation
	}

	s.locks.Lock(req.TripID)
	defer s.locks.Unlock(req.TripID)

	trip, err := s.repo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	if trip.Status.IsTerminal() || trip.Status == domain.TripStatusPending {
		return nil, ErrTripNotActive
	}

	if trip.Driver == nil || trip.Driver.ID != req.DriverID {
		return nil, ErrNotAssignedDriver
	}

	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	if trip.DriverLocation != nil && !at.After(trip.DriverLocation.At) {
		return trip, nil
	}

	trip.DriverLocation = &domain.TrackPoint{Point: req.Location, At: at}
	trip.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// Get retrieves a trip by ID.
func (s *TripService) Get(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	return s.repo.GetByID(ctx, tripID)
}

// ListOpen retrieves all trips still open for acceptance.
func (s *TripService) ListOpen(ctx context.Context) ([]*domain.Trip, error) {
	return s.repo.GetOpen(ctx)
}

// List retrieves recent trips regardless of status.
func (s *TripService) List(ctx context.Context) ([]*domain.Trip, error) {
	return s.repo.GetAll(ctx)
}
