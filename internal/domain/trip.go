package domain

import (
	"time"

	"rideshare/internal/geo"
)

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending         TripStatus = "PENDING"
	TripStatusAccepted        TripStatus = "ACCEPTED"
	TripStatusAwaitingPayment TripStatus = "AWAITING_PAYMENT"
	TripStatusPaid            TripStatus = "PAID"
	TripStatusInProgress      TripStatus = "IN_PROGRESS"
	TripStatusCompleted       TripStatus = "COMPLETED"
	TripStatusCancelled       TripStatus = "CANCELLED"
)

// AllowedTransitions defines the legal forward edges of the trip state
// machine. A status absent from the map is terminal.
var AllowedTransitions = map[TripStatus][]TripStatus{
	TripStatusPending:  {TripStatusAccepted, TripStatusCancelled},
	TripStatusAccepted: {TripStatusAwaitingPayment, TripStatusCompleted, TripStatusCancelled},
	// AWAITING_PAYMENT is the observable form of ACCEPTED: a single driver
	// fulfills all seats, so acceptance cascades here in the same operation.
	TripStatusAwaitingPayment: {TripStatusPaid, TripStatusCancelled},
	TripStatusPaid:            {TripStatusInProgress},
	TripStatusInProgress:      {TripStatusCompleted},
}

// CanTransition reports whether moving from one status to another is a
// legal edge of the state machine.
func CanTransition(from, to TripStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s TripStatus) IsTerminal() bool {
	return len(AllowedTransitions[s]) == 0
}

// RequiresDriver reports whether a trip in this status must have an
// assigned driver.
func (s TripStatus) RequiresDriver() bool {
	switch s {
	case TripStatusAccepted, TripStatusAwaitingPayment, TripStatusPaid, TripStatusInProgress, TripStatusCompleted:
		return true
	default:
		return false
	}
}

// DriverRef identifies the driver assigned to a trip.
type DriverRef struct {
	ID    string
	Name  string
	Phone string
}

// Place is a labeled coordinate.
type Place struct {
	Label string
	Point geo.Point
}

// TrackPoint is a timestamped driver position.
type TrackPoint struct {
	Point geo.Point
	At    time.Time
}

// Trip represents a passenger's ride request, the unit of dispatch.
// Driver is nil until a driver accepts; it is set if and only if the
// status requires a driver.
type Trip struct {
	ID             string
	PassengerID    string
	PassengerName  string
	PassengerPhone string
	Driver         *DriverRef
	Origin         Place
	Destination    Place
	DepartureTime  time.Time
	Seats          int
	PricePerSeat   Money
	TotalCost      Money
	Notes          string
	DriverLocation *TrackPoint
	Status         TripStatus
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the trip.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Driver != nil {
		driver := *t.Driver
		clone.Driver = &driver
	}
	if t.DriverLocation != nil {
		loc := *t.DriverLocation
		clone.DriverLocation = &loc
	}
	return &clone
}
