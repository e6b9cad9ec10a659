// Package core provides money parsing and handling utilities.
//
// Amounts are held as signed integer cents. Parsing goes through
// shopspring/decimal so that no float rounding leaks into stored values.
package core

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxFormAmount is the largest magnitude accepted from the transaction form.
var MaxFormAmount = decimal.NewFromInt(1_000_000)

// maxAmount keeps cents well inside int64.
var maxAmount = decimal.New(1, 15)

type Money struct {
	Cents int64
}

func NewMoney(cents int64) Money { return Money{Cents: cents} }

// Validate rejects zero. Sign carries the transaction kind so both are allowed.
func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) IsZero() bool    { return m.Cents == 0 }
func (m Money) IsIncome() bool  { return m.Cents > 0 }
func (m Money) IsExpense() bool { return m.Cents < 0 }

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Decimal returns the exact decimal value in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 is for wire and display use only. Do arithmetic on Cents.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String renders the plain amount with two decimals, e.g. "-42.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// ParseAmount converts a positive decimal string to Money with half-up
// rounding on the third decimal place. Both "12.34" and "12,34" are accepted.
func ParseAmount(s string) (Money, error) {
	d, err := parseDecimal(s, false)
	if err != nil {
		return Money{}, err
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	m, err := fromDecimal(d)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseSignedAmount parses an API amount. Negative values and exponent
// notation are accepted; zero and sub-cent precision are rejected so the
// stored value is exactly the value sent.
func ParseSignedAmount(s string) (Money, error) {
	d, err := parseDecimal(s, true)
	if err != nil {
		return Money{}, err
	}
	if d.IsZero() {
		return Money{}, ErrInvalidAmount
	}
	// Bound the exponent before anything rescales: 1e999999999 would
	// otherwise expand to a billion digits.
	exp := int(d.Exponent())
	if exp > 18 {
		return Money{}, ErrAmountTooLarge
	}
	if digits := len(new(big.Int).Abs(d.Coefficient()).Text(10)); -exp-2 > digits {
		return Money{}, ErrAmountPrecision
	}
	if !d.Equal(d.Truncate(2)) {
		return Money{}, ErrAmountPrecision
	}
	return fromDecimal(d)
}

func parseDecimal(s string, allowExponent bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	// the form takes plain notation only
	if !allowExponent && strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}
