// Package planning derives budgets, runway and spending rates from the
// event log. Every function is a pure fold over an immutable snapshot.
package planning

import (
	"fmt"

	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/schedule"
)

// TargetBudget is a target together with the money it is entitled to.
type TargetBudget struct {
	schedule.Target
	Accrued core.Money `json:"accrued"`
}

// Budgets returns each target's accrued ticks up to asOf plus the itemized
// deltas recorded against it.
//
// The deltas are folded over the whole log without looking at transaction
// dates, so a future-dated debit already lowers a budget queried for today.
// Deltas for names that are not targets are dropped.
func Budgets(events []event.Event, asOf core.Date) (map[string]TargetBudget, error) {
	targets := schedule.Registry(events)
	budgets := make(map[string]TargetBudget, targets.Len())
	for _, t := range targets.All() {
		g, err := t.Generator()
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", t.Name, err)
		}
		var accrued core.Money
		for _, tick := range schedule.Until(g, asOf) {
			accrued = accrued.Add(tick.Amount)
		}
		budgets[t.Name] = TargetBudget{Target: t, Accrued: accrued}
	}

	for _, e := range events {
		tx, ok := e.(event.Transact)
		if !ok {
			continue
		}
		for key, amount := range tx.ItemizedAmounts {
			b, ok := budgets[key]
			if key == core.Unallocated || !ok {
				continue
			}
			b.Accrued = b.Accrued.Add(amount)
			budgets[key] = b
		}
	}
	return budgets, nil
}

// ExpendituresByTarget returns the net amount spent per target in
// transactions dated on or before asOf. Debits increase it, credits reduce it.
func ExpendituresByTarget(events []event.Event, asOf core.Date) map[string]core.Money {
	spent := make(map[string]core.Money)
	for _, e := range events {
		tx, ok := e.(event.Transact)
		if !ok || tx.Date.After(asOf) {
			continue
		}
		for key, amount := range tx.ItemizedAmounts {
			if key == core.Unallocated {
				continue
			}
			spent[key] = spent[key].Sub(amount)
		}
	}
	return spent
}
