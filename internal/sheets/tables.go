package sheets

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"budgie/internal/core"
	"budgie/internal/services"
)

// Sheet names, in the order tables are written.
const (
	SheetSummary      = "Summary"
	SheetBalances     = "Balances"
	SheetBudgets      = "Budgets"
	SheetTransactions = "Transactions"
)

// Table is one sheet worth of cells. Numeric cells hold float64 major units
// so spreadsheet formulas work on them.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Values returns header and rows as one grid.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	return append(out, t.Rows...)
}

// Tables lays out a snapshot.
func Tables(snap *services.Snapshot) []Table {
	return []Table{
		summaryTable(snap),
		balancesTable(snap),
		budgetsTable(snap),
		transactionsTable(snap),
	}
}

func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}

func dateCell(d *core.Date) any {
	if d == nil {
		return ""
	}
	return d.String()
}

func summaryTable(snap *services.Snapshot) Table {
	return Table{
		Name:   SheetSummary,
		Header: []string{"As of", "Events", "Total balance", "Earliest runway", "Runway weeks", "Monthly spending rate"},
		Rows: [][]any{{
			snap.AsOf.String(),
			snap.EventCount,
			amount(snap.TotalBalance),
			dateCell(snap.EarliestRunway),
			snap.RunwayWeeks,
			amount(snap.SpendingRate),
		}},
	}
}

func balancesTable(snap *services.Snapshot) Table {
	t := Table{Name: SheetBalances, Header: []string{"Account", "Balance"}}
	for _, name := range slices.Sorted(maps.Keys(snap.Balances)) {
		t.Rows = append(t.Rows, []any{name, amount(snap.Balances[name])})
	}
	t.Rows = append(t.Rows, []any{"Total", amount(snap.TotalBalance)})
	return t
}

func budgetsTable(snap *services.Snapshot) Table {
	t := Table{Name: SheetBudgets, Header: []string{"Target", "Cadence", "Priority", "Value", "Accrued", "Runway"}}
	for _, target := range snap.Targets {
		value := any("")
		if v := target.Current(snap.AsOf); v != nil {
			value = amount(*v)
		}
		t.Rows = append(t.Rows, []any{
			target.Name,
			string(target.Cadence),
			target.Priority,
			value,
			amount(snap.Budgets[target.Name].Accrued),
			dateCell(snap.Runway[target.Name]),
		})
	}
	return t
}

func transactionsTable(snap *services.Snapshot) Table {
	t := Table{Name: SheetTransactions, Header: []string{"Account", "Date", "Memo", "Amount", "Balance", "Itemization"}}
	for _, account := range slices.Sorted(maps.Keys(snap.Transactions)) {
		for _, entry := range snap.Transactions[account] {
			t.Rows = append(t.Rows, []any{
				account,
				entry.Date.String(),
				entry.Memo,
				amount(entry.Amount()),
				amount(entry.Balance),
				FormatItemization(entry.ItemizedAmounts),
			})
		}
	}
	return t
}

// FormatItemization renders "target=amount" pairs sorted by key, the same
// syntax the command line accepts.
func FormatItemization(it core.Itemization) string {
	keys := make([]string, 0, len(it))
	for k := range it {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + it[k].String()
	}
	return strings.Join(parts, ",")
}
