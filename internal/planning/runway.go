package planning

import (
	"fmt"

	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/ledger"
	"budgie/internal/schedule"
)

// RunwayHorizonYears bounds how far past asOf the allocator walks the
// merged schedule. Zero-value targets would otherwise never exhaust it.
const RunwayHorizonYears = 100

// Runway returns, for every target, the last tick date whose accrual is
// still covered by the total balance as of asOf. Targets never reached map
// to nil.
//
// Ticks are funded in (date, priority) order. The first tick that cannot be
// afforded stops the allocation for every target.
func Runway(events []event.Event, asOf core.Date) (map[string]*core.Date, error) {
	targets := schedule.Registry(events)
	balances, err := ledger.Balances(events, asOf)
	if err != nil {
		return nil, err
	}
	budgets, err := Budgets(events, asOf)
	if err != nil {
		return nil, err
	}
	merged, err := schedule.Combined(targets)
	if err != nil {
		return nil, err
	}

	total := ledger.TotalBalance(balances)
	owed := ExpendituresByTarget(events, asOf)
	overspend := make(map[string]core.Money, len(budgets))
	for name, b := range budgets {
		if b.Accrued.IsNegative() {
			overspend[name] = b.Accrued.Neg()
		}
	}

	runway := make(map[string]*core.Date, targets.Len())
	for _, name := range targets.Names() {
		runway[name] = nil
	}

	horizon := asOf.AddYears(RunwayHorizonYears)
	var allocated core.Money
	for allocated.Cents < total.Cents {
		tick, ok := merged.Next()
		if !ok || tick.Date.After(horizon) {
			break
		}

		var available core.Money
		bucket := owed[tick.Target].Sub(tick.Amount)
		if bucket.IsNegative() {
			available = bucket.Neg()
			bucket = core.Money{}
		}
		owed[tick.Target] = bucket

		if available.Add(overspend[tick.Target]).Add(allocated).Cents > total.Cents {
			break
		}
		allocated = allocated.Add(available)
		date := tick.Date
		runway[tick.Target] = &date
	}
	return runway, nil
}

// EarliestRunway returns the earliest funded date across targets.
func EarliestRunway(runway map[string]*core.Date) (core.Date, bool) {
	var (
		earliest core.Date
		found    bool
	)
	for _, d := range runway {
		if d == nil {
			continue
		}
		if !found || d.Before(earliest) {
			earliest, found = *d, true
		}
	}
	return earliest, found
}

// WeeksBetween returns the whole weeks from a to b, rounding half up.
func WeeksBetween(a, b core.Date) int {
	days := a.DaysUntil(b)
	num, den := 2*days+7, 14
	q := num / den
	if num%den != 0 && num < 0 {
		q--
	}
	return q
}

// TrendPoint is the runway in weeks measured on one date.
type TrendPoint struct {
	Date  core.Date `json:"date"`
	Weeks int       `json:"weeks"`
}

// RunwayTrend measures runway on from and on every first of the month after
// it up to and including to. from is always the first point, even when it
// falls mid-month, so a trend started from the earliest transaction begins
// on that transaction's date. Dates where no target is funded are omitted.
func RunwayTrend(events []event.Event, from, to core.Date) ([]TrendPoint, error) {
	var points []TrendPoint
	for date := from; !date.After(to); date = date.FirstOfNextMonth() {
		runway, err := Runway(events, date)
		if err != nil {
			return nil, fmt.Errorf("runway on %s: %w", date, err)
		}
		earliest, ok := EarliestRunway(runway)
		if !ok {
			continue
		}
		points = append(points, TrendPoint{Date: date, Weeks: WeeksBetween(date, earliest)})
	}
	return points, nil
}
