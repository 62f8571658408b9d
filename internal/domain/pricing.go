package domain

// VehicleTier represents the pricing class of the vehicle serving a trip.
type VehicleTier string

const (
	VehicleTierStandard VehicleTier = "STANDARD"
	VehicleTierComfort  VehicleTier = "COMFORT"
	VehicleTierBusiness VehicleTier = "BUSINESS"
	VehicleTierLuxury   VehicleTier = "LUXURY"
)

// Multiplier returns the fare multiplier for the tier. Unknown tiers
// price as standard.
func (t VehicleTier) Multiplier() float64 {
	switch t {
	case VehicleTierComfort:
		return 1.3
	case VehicleTierBusiness:
		return 1.6
	case VehicleTierLuxury:
		return 2.0
	default:
		return 1.0
	}
}

// TimeOfDay labels the time-of-day pricing window applied to a quote.
type TimeOfDay string

const (
	TimeOfDayPeak   TimeOfDay = "peak"
	TimeOfDayNight  TimeOfDay = "night"
	TimeOfDayNormal TimeOfDay = "normal"
)

// PriceBreakdown is a fare quote. It is immutable once computed; changed
// inputs produce a new breakdown rather than an edit of the old one.
type PriceBreakdown struct {
	Base           Money
	TierMultiplier float64
	TimeMultiplier float64
	TimeReason     TimeOfDay
	Total          Money
	PerSeat        Money
	Commission     Money
	InsuranceFee   Money
	DriverEarning  Money
	Seats          int
}
