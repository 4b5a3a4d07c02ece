// Package schedule turns saving targets into lazy streams of accrual ticks.
//
// Each cadence has its own strategy that encapsulates how many weekly
// sub-ticks lead up to a deadline and how the next deadline is found.
package schedule

import (
	"fmt"

	"budgie/internal/core"
)

// CadenceStrategy describes how a cadence spreads one deadline's amount.
type CadenceStrategy interface {
	// TicksPerDeadline is the number of weekly ticks ending on each deadline.
	TicksPerDeadline() int
	// NextDeadline returns the deadline following previous.
	NextDeadline(previous core.Date) core.Date
}

// WeeklyStrategy accrues the whole amount on each deadline, every 7 days.
type WeeklyStrategy struct{}

func (WeeklyStrategy) TicksPerDeadline() int { return 1 }

func (WeeklyStrategy) NextDeadline(previous core.Date) core.Date {
	return previous.AddDays(7)
}

// MonthlyStrategy spreads the amount over 4 weekly ticks before each
// monthly deadline.
type MonthlyStrategy struct{}

func (MonthlyStrategy) TicksPerDeadline() int { return 4 }

// NextDeadline chains from the previous deadline, so a day-of-month overflow
// (Jan 31 -> Mar 3) carries into later deadlines.
func (MonthlyStrategy) NextDeadline(previous core.Date) core.Date {
	return previous.AddMonths(1)
}

// YearlyStrategy spreads the amount over 52 weekly ticks before each
// yearly deadline.
type YearlyStrategy struct{}

func (YearlyStrategy) TicksPerDeadline() int { return 52 }

func (YearlyStrategy) NextDeadline(previous core.Date) core.Date {
	return previous.AddYears(1)
}

var cadenceStrategies = map[core.Cadence]CadenceStrategy{
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Yearly:  YearlyStrategy{},
}

// StrategyFor returns the strategy registered for a cadence.
func StrategyFor(c core.Cadence) (CadenceStrategy, error) {
	s, ok := cadenceStrategies[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCadence, c)
	}
	return s, nil
}
