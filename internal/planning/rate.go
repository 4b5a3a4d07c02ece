package planning

import (
	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/ledger"
	"budgie/internal/schedule"
)

// ProjectedSpendingRate is the average monthly accrual across all targets
// over the twelve months starting on asOf.
func ProjectedSpendingRate(events []event.Event, asOf core.Date) (core.Money, error) {
	merged, err := schedule.Combined(schedule.Registry(events))
	if err != nil {
		return core.Money{}, err
	}
	end := asOf.AddMonths(12)
	var total core.Money
	for {
		tick, ok := merged.Next()
		if !ok || !tick.Date.Before(end) {
			break
		}
		if tick.Date.Before(asOf) {
			continue
		}
		total = total.Add(tick.Amount)
	}
	return core.DivideRounded(total, 12), nil
}

// HistoricalExpenseRate is the monthly average of target spending over
// [from, to]. Unallocated spending is excluded.
func HistoricalExpenseRate(events []event.Event, from, to core.Date) core.Money {
	var total core.Money
	for key, amount := range ledger.HistoricalExpenses(events, from, to) {
		if key == core.Unallocated {
			continue
		}
		total = total.Add(amount)
	}
	return core.DivideRounded(total, int64(from.MonthsSpanned(to)))
}
