// Package core provides money parsing and handling utilities.
//
// Amounts are always integer cents. Decimal strings coming from users are
// parsed with shopspring/decimal and rounded half-up to the cent.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units.
type Money struct {
	Cents int64
}

// Cents is shorthand for Money{Cents: c}.
func Cents(c int64) Money {
	return Money{Cents: c}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsNegative() bool  { return m.Cents < 0 }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Mul multiplies by an integer factor.
func (m Money) Mul(n int64) Money { return Money{Cents: m.Cents * n} }

// DivRound divides by n and rounds half toward positive infinity.
func (m Money) DivRound(n int64) Money {
	if n <= 0 {
		panic("core: DivRound by non-positive divisor")
	}
	num := 2*m.Cents + n
	den := 2 * n
	q := num / den
	if num%den != 0 && num < 0 {
		q--
	}
	return Money{Cents: q}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats as a plain signed decimal ("-12.05").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Cents, 10)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	c, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Tolerate legacy records written with fractional cents.
		d, derr := decimal.NewFromString(s)
		if derr != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		c = d.Round(0).IntPart()
	}
	m.Cents = c
	return nil
}

// ParseAmount converts a decimal string in major units to cents.
//
// Both dot and comma separators are accepted and the third decimal place is
// rounded half-up. Signs are allowed; zero is rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
//	ParseAmount("-5")     -> -500
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.New(1, 17)) {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	if cents.IsZero() {
		return Money{}, fmt.Errorf("%w: zero", ErrInvalidAmount)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseItemization reads the command-line itemization syntax.
//
// A bare amount ("12.50") is unallocated. Otherwise entries are
// "target=amount" separated by commas; repeated targets are summed.
func ParseItemization(s string) (Itemization, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyTransaction
	}
	if !strings.Contains(s, "=") {
		m, err := ParseAmount(s)
		if err != nil {
			return nil, err
		}
		return Itemization{Unallocated: m}, nil
	}
	out := Itemization{}
	for _, entry := range strings.Split(s, ",") {
		target, amount, ok := strings.Cut(entry, "=")
		target = strings.TrimSpace(target)
		if !ok || target == "" {
			return nil, fmt.Errorf("%w: malformed itemization entry %q", ErrInvalidAmount, entry)
		}
		m, err := ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("itemization entry %q: %w", entry, err)
		}
		out[target] = out[target].Add(m)
	}
	return out, nil
}

// DivideRounded divides a total by n units using decimal arithmetic,
// rounding half away from zero to the cent.
func DivideRounded(total Money, n int64) Money {
	if n <= 0 {
		return Money{}
	}
	q := decimal.NewFromInt(total.Cents).Div(decimal.NewFromInt(n)).Round(0)
	return Money{Cents: q.IntPart()}
}
