package memory

import (
	"context"
	"testing"

	"budgie/internal/core"
	"budgie/internal/services"
	"budgie/internal/sheets"
)

func TestMemoryStoreWriteSnapshot(t *testing.T) {
	s := New()
	snap := &services.Snapshot{
		AsOf:         core.MustParseDate("2020-11-01"),
		Balances:     map[string]core.Money{"checking": core.Cents(1250)},
		TotalBalance: core.Cents(1250),
	}

	if err := s.WriteSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := s.WriteSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	if s.Writes() != 2 || s.Last() != snap {
		t.Fatalf("writes=%d last=%v", s.Writes(), s.Last())
	}
	balances, ok := s.Table(sheets.SheetBalances)
	if !ok {
		t.Fatal("balances table missing")
	}
	if len(balances.Rows) != 2 || balances.Rows[0][0] != "checking" || balances.Rows[0][1] != 12.5 {
		t.Errorf("unexpected rows %v", balances.Rows)
	}
}

func TestMemoryStoreRejectsNil(t *testing.T) {
	if err := New().WriteSnapshot(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}
