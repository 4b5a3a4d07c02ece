package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budgie/internal/core"
	"budgie/internal/event"
)

func sampleEvents() []event.Event {
	v := core.Cents(5000)
	return []event.Event{
		event.CreateAccount{AccountName: "Checking"},
		event.Transact{
			AccountName:     "Checking",
			Date:            core.MustParseDate("2020-11-01"),
			ItemizedAmounts: core.Itemization{core.Unallocated: core.Cents(1000)},
		},
		event.CreateTarget{
			StartDate:   core.MustParseDate("2020-11-01"),
			TargetName:  "groceries",
			TargetValue: &v,
			Cadence:     core.Weekly,
			Priority:    1,
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", DefaultFileName))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"file":   f,
	}
}

func TestAppendAndReplayInOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, e := range sampleEvents() {
				if err := s.Append(ctx, e); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}
			got, err := Snapshot(ctx, s)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			want := sampleEvents()
			if len(got) != len(want) {
				t.Fatalf("got %d events, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].Type() != want[i].Type() {
					t.Errorf("event %d type = %s, want %s", i, got[i].Type(), want[i].Type())
				}
			}

			count, err := Project(ctx, s, 0, func(n int, e event.Event) int {
				if _, ok := e.(event.Transact); ok {
					n++
				}
				return n
			})
			if err != nil || count != 1 {
				t.Errorf("Project = %d, %v; want 1", count, err)
			}
		})
	}
}

func TestAppendRejectsInvalidEvents(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Append(ctx, event.Transact{AccountName: "a", Date: core.MustParseDate("2020-11-01")})
			if !errors.Is(err, core.ErrEmptyTransaction) {
				t.Fatalf("expected ErrEmptyTransaction, got %v", err)
			}
			got, _ := Snapshot(ctx, s)
			if len(got) != 0 {
				t.Errorf("invalid event was stored")
			}
		})
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	for _, e := range sampleEvents() {
		_ = s.Append(ctx, e)
	}
	stop := errors.New("stop")
	calls := 0
	err := s.Replay(ctx, func(event.Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Replay = %v after %d calls", err, calls)
	}
}

func TestReplayUpgradesLegacyRecords(t *testing.T) {
	legacy := []string{
		`{"type":"CREATE_ACCOUNT","version":1,"accountName":"Checking"}`,
		`{"type":"TRANSACT","version":1,"accountName":"Checking","date":"2020-11-01","value":-2500,"target":"groceries","memo":null}`,
		`{"type":"CREATE_TARGET","version":1,"startDate":"2020-11-01","targetName":"groceries","targetValue":5000,"cadence":"WEEKLY","priority":1,"allocateFrom":"Checking"}`,
	}

	path := filepath.Join(t.TempDir(), DefaultFileName)
	content := ""
	for _, l := range legacy {
		content += l + "\n\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}

	records := make([][]byte, len(legacy))
	for i, l := range legacy {
		records[i] = []byte(l)
	}

	for name, s := range map[string]Store{"file": f, "memory": NewMemoryFromRecords(records...)} {
		t.Run(name, func(t *testing.T) {
			events, err := Snapshot(context.Background(), s)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if len(events) != 3 {
				t.Fatalf("got %d events, want 3", len(events))
			}
			tx := events[1].(event.Transact)
			if tx.ItemizedAmounts["groceries"].Cents != -2500 {
				t.Errorf("legacy transact not upgraded: %+v", tx)
			}
		})
	}
}

func TestReplayReportsCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	body := `{"type":"CREATE_ACCOUNT","version":1,"accountName":"a"}` + "\n" + `{not json` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(path)
	_, err := Snapshot(context.Background(), f)
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Position != 2 {
		t.Fatalf("expected RecordError at line 2, got %v", err)
	}
}

func TestReplayRejectsUndatedTransfer(t *testing.T) {
	body := strings.Join([]string{
		`{"type":"CREATE_ACCOUNT","version":1,"accountName":"A"}`,
		`{"type":"CREATE_ACCOUNT","version":1,"accountName":"B"}`,
		`{"type":"TRANSFER","version":1,"sourceAccount":"A","destinationAccount":"B","value":400}`,
		`{"type":"TRANSACT","version":2,"accountName":"A","date":"2020-11-05","itemizedAmounts":{"_":1000},"memo":""}`,
	}, "\n") + "\n"
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Snapshot(context.Background(), f)
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.Position != 3 {
		t.Fatalf("expected RecordError at line 3, got %v", err)
	}
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestFileMissingIsEmpty(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "absent.ndjson"))
	if err != nil {
		t.Fatal(err)
	}
	events, err := Snapshot(context.Background(), f)
	if err != nil || len(events) != 0 {
		t.Errorf("Snapshot = %v, %v", events, err)
	}
}

func TestFileUnavailable(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the log file makes every open fail.
	path := filepath.Join(dir, "log")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(path)
	err := f.Append(context.Background(), event.CreateAccount{AccountName: "a"})
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
