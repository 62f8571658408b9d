package pricing

import (
	"time"

	"rideshare/internal/domain"
)

// Policy contains the fare calculation parameters.
type Policy struct {
	BaseRatePerKm   float64      // currency units per kilometer
	MinimumFare     domain.Money // floor applied after all multipliers
	CommissionRate  float64      // platform share of the total fare
	InsuranceRate   float64      // insurance share of the total fare
	PeakMultiplier  float64
	NightMultiplier float64
	MaxSurge        float64 // cap on the demand/supply multiplier
}

// DefaultPolicy returns the reference pricing policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseRatePerKm:   3.0,
		MinimumFare:     domain.MoneyFromFloat(10.0),
		CommissionRate:  0.10,
		InsuranceRate:   0.05,
		PeakMultiplier:  1.5,
		NightMultiplier: 1.3,
		MaxSurge:        2.0,
	}
}

// Engine computes fare breakdowns from trip parameters. Quotes are pure:
// the engine never mutates a breakdown it has returned.
type Engine struct {
	policy Policy
}

// NewEngine creates an Engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's pricing policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Quote computes a fare breakdown for a trip of the given distance,
// departing at the given time, for the given seat count and vehicle tier.
func (e *Engine) Quote(distanceKm float64, departure time.Time, seats int, tier domain.VehicleTier) domain.PriceBreakdown {
	base := distanceKm * e.policy.BaseRatePerKm

	tierMult := tier.Multiplier()
	timeMult, reason := e.timeMultiplier(departure.Hour())

	total := domain.MoneyFromFloat(base * tierMult * timeMult)
	if total < e.policy.MinimumFare {
		total = e.policy.MinimumFare
	}

	perSeat := total
	if seats > 0 {
		perSeat = total.Div(seats)
	}

	commission := total.Mul(e.policy.CommissionRate)
	insurance := total.Mul(e.policy.InsuranceRate)

	return domain.PriceBreakdown{
		Base:           domain.MoneyFromFloat(base),
		TierMultiplier: tierMult,
		TimeMultiplier: timeMult,
		TimeReason:     reason,
		Total:          total,
		PerSeat:        perSeat,
		Commission:     commission,
		InsuranceFee:   insurance,
		DriverEarning:  total - commission - insurance,
		Seats:          seats,
	}
}

// Reprice applies a demand/supply multiplier to an existing breakdown and
// returns a new one. The multiplier is demand divided by supply (supply
// floored at 0.1), clamped to [1.0, MaxSurge]. Only total, per-seat and
// driver earning are scaled; commission and insurance keep their original
// values.
func (e *Engine) Reprice(b domain.PriceBreakdown, demand, supply float64) domain.PriceBreakdown {
	mult := e.SurgeMultiplier(demand, supply)

	repriced := b
	repriced.Total = b.Total.Mul(mult)
	repriced.PerSeat = b.PerSeat.Mul(mult)
	repriced.DriverEarning = b.DriverEarning.Mul(mult)
	return repriced
}

// SurgeMultiplier maps a demand/supply reading to a fare multiplier:
// the ratio with supply floored at 0.1, clamped to [1.0, MaxSurge].
func (e *Engine) SurgeMultiplier(demand, supply float64) float64 {
	if supply < 0.1 {
		supply = 0.1
	}

	mult := demand / supply
	if mult < 1.0 {
		mult = 1.0
	}
	if mult > e.policy.MaxSurge {
		mult = e.policy.MaxSurge
	}

	return mult
}

// Commission returns the platform's share of a total fare.
func (e *Engine) Commission(total domain.Money) domain.Money {
	return total.Mul(e.policy.CommissionRate)
}

// Insurance returns the insurance share of a total fare.
func (e *Engine) Insurance(total domain.Money) domain.Money {
	return total.Mul(e.policy.InsuranceRate)
}

// DriverEarning returns the driver's net share of a total fare after
// commission and insurance.
func (e *Engine) DriverEarning(total domain.Money) domain.Money {
	return total - e.Commission(total) - e.Insurance(total)
}

// timeMultiplier maps an hour of day to a fare multiplier. Peak windows
// are checked before the night window.
func (e *Engine) timeMultiplier(hour int) (float64, domain.TimeOfDay) {
	if (hour >= 7 && hour < 9) || (hour >= 17 && hour < 19) {
		return e.policy.PeakMultiplier, domain.TimeOfDayPeak
	}
	if hour >= 22 || hour < 6 {
		return e.policy.NightMultiplier, domain.TimeOfDayNight
	}
	return 1.0, domain.TimeOfDayNormal
}
