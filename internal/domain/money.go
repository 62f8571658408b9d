package domain

import (
	"fmt"
	"math"
)

// Money is a fixed-point currency amount in cents. Signed: positive values
// are credits, negative values are debits.
type Money int64

// MoneyFromFloat converts a currency amount in major units to Money,
// rounding half away from zero.
func MoneyFromFloat(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// Float64 returns the amount in major currency units.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// Mul scales the amount by a factor, rounding half away from zero.
func (m Money) Mul(factor float64) Money {
	return Money(math.Round(float64(m) * factor))
}

// Times multiplies the amount by an integer count.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// Div splits the amount into n equal shares, rounding half up.
// n must be positive.
func (m Money) Div(n int) Money {
	if n <= 0 {
		return m
	}
	d := Money(n)
	if m >= 0 {
		return (m + d/2) / d
	}
	return (m - d/2) / d
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// String formats the amount as a decimal string, e.g. "45.00" or "-3.25".
func (m Money) String() string {
	sign := ""
	v := m
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
