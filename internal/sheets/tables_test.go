package sheets

import (
	"testing"

	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/services"
)

func fixtureSnapshot(t *testing.T) *services.Snapshot {
	t.Helper()
	value := core.Cents(5000)
	events := []event.Event{
		event.CreateAccount{AccountName: "savings"},
		event.CreateAccount{AccountName: "checking"},
		event.Transact{
			AccountName:     "checking",
			Date:            core.MustParseDate("2020-11-01"),
			ItemizedAmounts: core.Itemization{core.Unallocated: core.Cents(100000)},
			Memo:            "pay",
		},
		event.Transact{
			AccountName:     "checking",
			Date:            core.MustParseDate("2020-11-02"),
			ItemizedAmounts: core.Itemization{"groceries": core.Cents(-2000), core.Unallocated: core.Cents(-500)},
			Memo:            "market",
		},
		event.CreateTarget{
			StartDate:   core.MustParseDate("2020-11-01"),
			TargetName:  "groceries",
			TargetValue: &value,
			Cadence:     core.Weekly,
			Priority:    1,
		},
	}
	snap, err := services.BuildSnapshot(events, core.MustParseDate("2020-11-08"))
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	return snap
}

func TestTables(t *testing.T) {
	tables := Tables(fixtureSnapshot(t))

	byName := map[string]Table{}
	for _, table := range tables {
		byName[table.Name] = table
	}

	tests := []struct {
		sheet    string
		wantRows int
		check    func(t *testing.T, rows [][]any)
	}{
		{
			sheet:    SheetSummary,
			wantRows: 1,
			check: func(t *testing.T, rows [][]any) {
				if rows[0][0] != "2020-11-08" || rows[0][1] != 5 || rows[0][2] != 975.0 {
					t.Errorf("summary = %v", rows[0])
				}
			},
		},
		{
			sheet:    SheetBalances,
			wantRows: 3,
			check: func(t *testing.T, rows [][]any) {
				if rows[0][0] != "checking" || rows[1][0] != "savings" || rows[2][0] != "Total" {
					t.Errorf("balances should be sorted with a total row, got %v", rows)
				}
			},
		},
		{
			sheet:    SheetBudgets,
			wantRows: 1,
			check: func(t *testing.T, rows [][]any) {
				if rows[0][0] != "groceries" || rows[0][1] != "WEEKLY" || rows[0][3] != 50.0 {
					t.Errorf("budgets = %v", rows[0])
				}
			},
		},
		{
			sheet:    SheetTransactions,
			wantRows: 2,
			check: func(t *testing.T, rows [][]any) {
				if rows[1][5] != "_=-5.00,groceries=-20.00" {
					t.Errorf("itemization cell = %v", rows[1][5])
				}
				if rows[1][4] != 975.0 {
					t.Errorf("running balance = %v", rows[1][4])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			table, ok := byName[tt.sheet]
			if !ok {
				t.Fatalf("table %s missing", tt.sheet)
			}
			if len(table.Rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d: %v", len(table.Rows), tt.wantRows, table.Rows)
			}
			if got := len(table.Values()); got != tt.wantRows+1 {
				t.Errorf("Values() = %d rows, want header plus %d", got, tt.wantRows)
			}
			tt.check(t, table.Rows)
		})
	}
}

func TestFormatItemization(t *testing.T) {
	got := FormatItemization(core.Itemization{"rent": core.Cents(80000), "food": core.Cents(-1234)})
	if got != "food=-12.34,rent=800.00" {
		t.Errorf("FormatItemization = %q", got)
	}
}
