package domain

import "time"

// Receipt is the settlement record for a completed trip. It is derived
// from the stored trip and the pricing policy, so regenerating it for
// the same trip yields the same numbers.
type Receipt struct {
	TripID           string
	PassengerID      string
	DriverID         string
	OriginLabel      string
	DestinationLabel string
	DepartureTime    time.Time
	Seats            int
	PricePerSeat     Money
	Total            Money
	Commission       Money
	InsuranceFee     Money
	DriverEarning    Money
	DistanceKm       float64
	CompletedAt      time.Time
	GeneratedAt      time.Time
}
