package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Weekly  Cadence = "WEEKLY"
	Monthly Cadence = "MONTHLY"
	Yearly  Cadence = "YEARLY"

	// Unallocated is the itemization key for money not tied to any target.
	Unallocated = "_"

	// DefaultPriority is used when a target is created without one.
	DefaultPriority = 5
)

type (
	Cadence string

	// Itemization maps target names (or Unallocated) to signed deltas.
	// Positive amounts are credits, negative amounts are debits.
	Itemization map[string]Money
)

var (
	ErrInvalidCadence          = errors.New("invalid cadence")
	ErrUnknownAccount          = errors.New("unknown account")
	ErrAccountExists           = errors.New("account already exists")
	ErrEmptyTransaction        = errors.New("empty transaction")
	ErrEmptyScheduleDefinition = errors.New("empty schedule definition")
	ErrStoreUnavailable        = errors.New("event store unavailable")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidDate             = errors.New("invalid date")
	ErrInvalidPriority         = errors.New("invalid priority")
	ErrEmptyName               = errors.New("empty name")
	ErrMigrationLoop           = errors.New("event migration loop")
	ErrInvalidEvent            = errors.New("invalid event")
)

// ParseCadence accepts the cadence names case-insensitively.
func ParseCadence(s string) (Cadence, error) {
	c := Cadence(strings.ToUpper(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCadence, s)
	}
	return c, nil
}

func (c Cadence) Validate() error {
	switch c {
	case Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidCadence
	}
}

// Short returns the abbreviation used in rate columns ("wk", "mo", "yr").
func (c Cadence) Short() string {
	switch c {
	case Weekly:
		return "wk"
	case Monthly:
		return "mo"
	case Yearly:
		return "yr"
	}
	return "?"
}

// Total sums every entry, allocated or not.
func (it Itemization) Total() Money {
	var total Money
	for _, m := range it {
		total = total.Add(m)
	}
	return total
}

// Negate returns a copy with every amount sign-flipped.
func (it Itemization) Negate() Itemization {
	out := make(Itemization, len(it))
	for k, m := range it {
		out[k] = m.Neg()
	}
	return out
}

// Clone returns an independent copy.
func (it Itemization) Clone() Itemization {
	out := make(Itemization, len(it))
	for k, m := range it {
		out[k] = m
	}
	return out
}

func (it Itemization) Validate() error {
	if len(it) == 0 {
		return ErrEmptyTransaction
	}
	for k := range it {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: blank itemization key", ErrEmptyName)
		}
	}
	return nil
}

// ValidateName rejects blank account and target names.
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyName, kind)
	}
	if len(name) > 100 {
		return fmt.Errorf("%s name too long (max 100 characters)", kind)
	}
	return nil
}

// ValidatePriority enforces the small positive integer rule; lower is higher priority.
func ValidatePriority(p int) error {
	if p < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, p)
	}
	return nil
}
