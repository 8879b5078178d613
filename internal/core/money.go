// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Parsing and formatting go through
// shopspring/decimal so no float ever touches a stored value.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents keeps parsed values well inside int64 after arithmetic on balances.
const maxCents = int64(1) << 53

// ParseDecimalToCents converts a positive decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Zero, negative and malformed input
// return ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("1.005")  -> 101, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	cents, err := ParseSignedDecimalToCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedDecimalToCents is ParseDecimalToCents for balances: a leading
// minus sign and zero are allowed.
func ParseSignedDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// NewFromString also accepts exponents; amounts never need them.
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// Decimal returns the amount as a decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "-12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string ("12.34") or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ErrInvalidAmount
		}
		s = n.String()
	}
	cents, err := ParseSignedDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// Average divides total by n, rounding half-up to the cent. It returns zero
// when n is not positive.
func Average(total Money, n int) Money {
	if n <= 0 {
		return Money{}
	}
	avg := decimal.NewFromInt(total.Cents).DivRound(decimal.NewFromInt(int64(n)), 0)
	return Money{Cents: avg.IntPart()}
}

// Percent returns part/whole*100 rounded to two decimals, or 0 when whole is 0.
func Percent(part, whole Money) float64 {
	if whole.Cents == 0 {
		return 0
	}
	p := decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole.Cents), 2)
	return p.InexactFloat64()
}
