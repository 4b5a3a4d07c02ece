// Package ledger folds the event log into account balances and
// per-account transaction history.
package ledger

import (
	"fmt"
	"sort"

	"budgie/internal/core"
	"budgie/internal/event"
)

// TransactionEntry is one line of an account's history with the running
// balance after it.
type TransactionEntry struct {
	Date            core.Date        `json:"date"`
	ItemizedAmounts core.Itemization `json:"itemizedAmounts"`
	Memo            string           `json:"memo"`
	Balance         core.Money       `json:"balance"`
}

// Amount is the entry's total across all itemization keys.
func (e TransactionEntry) Amount() core.Money {
	return e.ItemizedAmounts.Total()
}

func unknownAccount(name string) error {
	return fmt.Errorf("%w: %q", core.ErrUnknownAccount, name)
}

// Balances returns every account's balance counting transactions and
// transfers dated on or before asOf. Accounts exist from creation regardless
// of date.
func Balances(events []event.Event, asOf core.Date) (map[string]core.Money, error) {
	balances := make(map[string]core.Money)
	for _, e := range events {
		switch e := e.(type) {
		case event.CreateAccount:
			if _, ok := balances[e.AccountName]; !ok {
				balances[e.AccountName] = core.Money{}
			}
		case event.Transact:
			current, ok := balances[e.AccountName]
			if !ok {
				return nil, unknownAccount(e.AccountName)
			}
			if e.Date.After(asOf) {
				continue
			}
			balances[e.AccountName] = current.Add(e.ItemizedAmounts.Total())
		case event.Transfer:
			src, ok := balances[e.SourceAccount]
			if !ok {
				return nil, unknownAccount(e.SourceAccount)
			}
			dst, ok := balances[e.DestinationAccount]
			if !ok {
				return nil, unknownAccount(e.DestinationAccount)
			}
			if e.Date.After(asOf) {
				continue
			}
			balances[e.SourceAccount] = src.Sub(e.Value)
			balances[e.DestinationAccount] = dst.Add(e.Value)
		}
	}
	return balances, nil
}

// TotalBalance sums all account balances.
func TotalBalance(balances map[string]core.Money) core.Money {
	var total core.Money
	for _, b := range balances {
		total = total.Add(b)
	}
	return total
}

// Accounts lists account names in order of creation.
func Accounts(events []event.Event) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range events {
		if ca, ok := e.(event.CreateAccount); ok && !seen[ca.AccountName] {
			seen[ca.AccountName] = true
			names = append(names, ca.AccountName)
		}
	}
	return names
}

// HasAccount reports whether the log creates the named account.
func HasAccount(events []event.Event, name string) bool {
	for _, e := range events {
		if ca, ok := e.(event.CreateAccount); ok && ca.AccountName == name {
			return true
		}
	}
	return false
}

// Transactions returns the account's history sorted by date, ties kept in
// append order. Transfers appear as unallocated entries.
func Transactions(events []event.Event, account string) ([]TransactionEntry, error) {
	if !HasAccount(events, account) {
		return nil, unknownAccount(account)
	}

	var entries []TransactionEntry
	for _, e := range events {
		switch e := e.(type) {
		case event.Transact:
			if e.AccountName != account {
				continue
			}
			entries = append(entries, TransactionEntry{
				Date:            e.Date,
				ItemizedAmounts: e.ItemizedAmounts.Clone(),
				Memo:            e.Memo,
			})
		case event.Transfer:
			if e.SourceAccount == account {
				entries = append(entries, TransactionEntry{
					Date:            e.Date,
					ItemizedAmounts: core.Itemization{core.Unallocated: e.Value.Neg()},
					Memo:            "transfer to " + e.DestinationAccount,
				})
			}
			if e.DestinationAccount == account {
				entries = append(entries, TransactionEntry{
					Date:            e.Date,
					ItemizedAmounts: core.Itemization{core.Unallocated: e.Value},
					Memo:            "transfer from " + e.SourceAccount,
				})
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	var balance core.Money
	for i := range entries {
		balance = balance.Add(entries[i].Amount())
		entries[i].Balance = balance
	}
	return entries, nil
}

// HistoricalExpenses sums spending per itemization key over [from, to].
// Unallocated debits count and unallocated credits are ignored. Target
// credits are refunds and reduce that target's expenses. Transfers are not
// expenses.
func HistoricalExpenses(events []event.Event, from, to core.Date) map[string]core.Money {
	expenses := make(map[string]core.Money)
	for _, e := range events {
		tx, ok := e.(event.Transact)
		if !ok || tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		for key, amount := range tx.ItemizedAmounts {
			if key == core.Unallocated && !amount.IsNegative() {
				continue
			}
			expenses[key] = expenses[key].Sub(amount)
		}
	}
	return expenses
}
