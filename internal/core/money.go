// Package core holds the budget domain: money, the four tables as typed rows,
// and the read models derived from them.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in euro cents.
type Money struct {
	Cents int64
}

// maxEuros bounds a single parsed amount. Totals of such amounts stay far
// below the int64 range.
var maxEuros = decimal.New(1_000_000_000_000, 0)

// Euros builds a Money from a whole euro amount.
func Euros(e int64) Money {
	return Money{Cents: e * 100}
}

// ParseAmount converts a stored decimal cell into Money.
//
// It accepts dot or comma separators ("18.5", "26,99"), trailing zeros written by
// spreadsheet tools ("2056.0") and rounds half away from zero on the third decimal.
// A blank cell is zero. Negative values are parsed; callers validate the sign.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThan(maxEuros) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// Decimal returns the amount in euros as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount the way the tables store it: euros without
// trailing zeros ("306", "18.5", "26.99").
func (m Money) String() string {
	return m.Decimal().String()
}

// Euros returns the euro value as a float64 for display purposes.
// Use cents for calculations.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

// Add and Sub saturate at the int64 bounds instead of wrapping.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

func (m Money) Sub(o Money) Money {
	diff := m.Cents - o.Cents
	switch {
	case o.Cents < 0 && diff < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents > 0 && diff > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: diff}
}

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

// Validate reports whether the amount can be recorded as a transaction.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Format renders cents as a euro string for people ("€12,34").
func (m Money) Format() string {
	neg := m.Cents < 0
	d := m.Decimal().Abs().StringFixed(2)
	s := "€" + strings.Replace(d, ".", ",", 1)
	if neg {
		return "-" + s
	}
	return s
}
