package ledger

import (
	"errors"
	"testing"

	"budgie/internal/core"
	"budgie/internal/event"
)

var start = core.MustParseDate("2020-11-01")

func day(n int) core.Date { return start.AddDays(n) }

func tx(account string, d core.Date, memo string, items core.Itemization) event.Transact {
	return event.Transact{AccountName: account, Date: d, ItemizedAmounts: items, Memo: memo}
}

func unallocated(c int64) core.Itemization {
	return core.Itemization{core.Unallocated: core.Cents(c)}
}

func basicWorkflow() []event.Event {
	return []event.Event{
		event.CreateAccount{AccountName: "Account A"},
		event.CreateAccount{AccountName: "Account B"},
		tx("Account A", day(0), "", unallocated(1000)),
		tx("Account B", day(1), "", unallocated(-300)),
		event.Transfer{SourceAccount: "Account A", DestinationAccount: "Account B", Value: core.Cents(400), Date: day(2)},
		tx("Account A", day(3), "some note", core.Itemization{
			"targetA":        core.Cents(-100),
			"targetB":        core.Cents(-25),
			core.Unallocated: core.Cents(-50),
		}),
	}
}

func TestBalances(t *testing.T) {
	events := basicWorkflow()
	tests := []struct {
		name string
		asOf core.Date
		a, b int64
	}{
		{"start", day(0), 1000, 0},
		{"after debit", day(1), 1000, -300},
		{"after transfer", day(2), 600, 100},
		{"after itemized debit", day(3), 425, 100},
		{"before any transaction", day(-1), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Balances(events, tt.asOf)
			if err != nil {
				t.Fatalf("Balances: %v", err)
			}
			if len(got) != 2 || got["Account A"].Cents != tt.a || got["Account B"].Cents != tt.b {
				t.Errorf("Balances = %v, want A=%d B=%d", got, tt.a, tt.b)
			}
		})
	}

	total, _ := Balances(events, day(3))
	if got := TotalBalance(total); got.Cents != 525 {
		t.Errorf("TotalBalance = %d, want 525", got.Cents)
	}
}

func TestBalancesUnknownAccount(t *testing.T) {
	tests := []struct {
		name   string
		events []event.Event
	}{
		{"transact", []event.Event{tx("ghost", day(0), "", unallocated(1))}},
		{"transfer source", []event.Event{
			event.CreateAccount{AccountName: "a"},
			event.Transfer{SourceAccount: "ghost", DestinationAccount: "a", Value: core.Cents(1), Date: day(0)},
		}},
		{"future dated still checked", []event.Event{tx("ghost", day(400), "", unallocated(1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Balances(tt.events, day(0)); !errors.Is(err, core.ErrUnknownAccount) {
				t.Errorf("expected ErrUnknownAccount, got %v", err)
			}
		})
	}
}

func TestTransactionsSortsBackdatedEntries(t *testing.T) {
	events := append(basicWorkflow(), tx("Account A", day(1), "backdated", unallocated(-25)))

	got, err := Transactions(events, "Account A")
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	want := []struct {
		date    core.Date
		total   int64
		memo    string
		balance int64
	}{
		{day(0), 1000, "", 1000},
		{day(1), -25, "backdated", 975},
		{day(2), -400, "transfer to Account B", 575},
		{day(3), -175, "some note", 400},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, w := range want {
		e := got[i]
		if !e.Date.Equal(w.date) || e.Amount().Cents != w.total || e.Memo != w.memo || e.Balance.Cents != w.balance {
			t.Errorf("entry %d = {%s %d %q %d}, want {%s %d %q %d}", i,
				e.Date, e.Amount().Cents, e.Memo, e.Balance.Cents,
				w.date, w.total, w.memo, w.balance)
		}
	}
	if got[3].ItemizedAmounts["targetA"].Cents != -100 {
		t.Errorf("itemization not preserved: %v", got[3].ItemizedAmounts)
	}
}

func TestTransactionsTransferDestination(t *testing.T) {
	got, err := Transactions(basicWorkflow(), "Account B")
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[1].Memo != "transfer from Account A" || got[1].ItemizedAmounts[core.Unallocated].Cents != 400 || got[1].Balance.Cents != 100 {
		t.Errorf("unexpected transfer entry %+v", got[1])
	}
}

func TestTransactionsUnknownAccount(t *testing.T) {
	if _, err := Transactions(basicWorkflow(), "Account C"); !errors.Is(err, core.ErrUnknownAccount) {
		t.Errorf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestHistoricalExpenses(t *testing.T) {
	events := []event.Event{
		event.CreateAccount{AccountName: "Account A"},
		event.CreateAccount{AccountName: "Account B"},
		tx("Account A", day(0), "", unallocated(1000)),
		tx("Account B", day(0), "", unallocated(2000)),
		tx("Account A", day(1), "", unallocated(-100)),
		tx("Account B", day(2), "", unallocated(-200)),
		tx("Account A", day(3), "some note", core.Itemization{"targetA": core.Cents(-300)}),
		tx("Account A", day(4), "partial refund", core.Itemization{"targetA": core.Cents(100)}),
		event.Transfer{SourceAccount: "Account B", DestinationAccount: "Account A", Value: core.Cents(200), Date: day(5)},
	}

	tests := []struct {
		name string
		to   core.Date
		want map[string]int64
	}{
		{"unallocated credits ignored", day(1), map[string]int64{"_": 100}},
		{"allocated debits included", day(3), map[string]int64{"_": 300, "targetA": 300}},
		{"refunds and transfers", day(6), map[string]int64{"_": 300, "targetA": 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HistoricalExpenses(events, start, tt.to)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k].Cents != v {
					t.Errorf("%s = %d, want %d", k, got[k].Cents, v)
				}
			}
		})
	}
}

func TestAccounts(t *testing.T) {
	events := append(basicWorkflow(), event.CreateAccount{AccountName: "Account A"})
	got := Accounts(events)
	if len(got) != 2 || got[0] != "Account A" || got[1] != "Account B" {
		t.Errorf("Accounts = %v", got)
	}
}
