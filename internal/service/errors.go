package service

import (
	"errors"
	"fmt"

	"rideshare/internal/domain"
)

var (
	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidOwnerID is returned when a wallet owner ID is empty.
	ErrInvalidOwnerID = errors.New("invalid owner id")

	// ErrInvalidEntryID is returned when a ledger entry ID is empty.
	ErrInvalidEntryID = errors.New("invalid entry id")

	// ErrInvalidSeatCount is returned when a trip requests fewer than one seat.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrInvalidPrice is returned when a per-seat price is not positive.
	ErrInvalidPrice = errors.New("invalid price per seat")

	// ErrDepartureInPast is returned when a trip's departure time is not in the future.
	ErrDepartureInPast = errors.New("departure time in the past")

	// ErrInvalidLocation is returned when coordinates are outside WGS84 bounds.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidAmount is returned when a wallet amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTripAlreadyAccepted is returned to the losers of an accept race.
	ErrTripAlreadyAccepted = errors.New("trip already accepted")

	// ErrDriverHasActiveTrip is returned when a driver tries to accept
	// a trip while already serving one.
	ErrDriverHasActiveTrip = errors.New("driver already has an active trip")

	// ErrInvalidTransition is returned when a lifecycle operation is
	// attempted from a state that does not allow it. Use errors.Is; the
	// concrete error is a *TransitionError carrying both states.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientFunds is returned when a debit would drive the
	// balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotAssignedDriver is returned when a driver operates a trip
	// assigned to someone else.
	ErrNotAssignedDriver = errors.New("driver not assigned to this trip")

	// ErrTripNotActive is returned when a location update targets a trip
	// without an assigned driver en route.
	ErrTripNotActive = errors.New("trip not active")

	// ErrTripNotCompleted is returned when a receipt is requested for a
	// trip that has not completed.
	ErrTripNotCompleted = errors.New("trip not completed")

	// ErrEntryNotRefundable is returned when refunding an entry that is
	// not a completed debit.
	ErrEntryNotRefundable = errors.New("entry not refundable")
)

// TransitionError reports a guarded transition attempted from a state
// that does not allow it. It matches ErrInvalidTransition under
// errors.Is.
type TransitionError struct {
	From      domain.TripStatus
	Attempted domain.TripStatus
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.Attempted)
}

// Is matches the ErrInvalidTransition sentinel.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
