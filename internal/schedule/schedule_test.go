package schedule

import (
	"errors"
	"testing"

	"budgie/internal/core"
	"budgie/internal/event"
)

func amount(c int64) *core.Money {
	m := core.Cents(c)
	return &m
}

func values(pairs ...any) []ValueChange {
	var out []ValueChange
	for i := 0; i < len(pairs); i += 2 {
		vc := ValueChange{Effective: core.MustParseDate(pairs[i].(string))}
		if c, ok := pairs[i+1].(int); ok {
			vc.Amount = amount(int64(c))
		}
		out = append(out, vc)
	}
	return out
}

func mustGenerator(t *testing.T, cadence core.Cadence, vs []ValueChange) *Generator {
	t.Helper()
	g, err := NewGenerator("target name", cadence, vs)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func sum(ticks []Tick) int64 {
	var total int64
	for _, tk := range ticks {
		total += tk.Amount.Cents
	}
	return total
}

func TestWeeklySchedule(t *testing.T) {
	g := mustGenerator(t, core.Weekly, values("2020-11-01", 5000))
	want := []string{"2020-11-01", "2020-11-08", "2020-11-15"}
	for i, tk := range Take(g, 3) {
		if tk.Date.String() != want[i] || tk.Amount.Cents != 5000 || tk.Target != "target name" {
			t.Errorf("tick %d = %+v, want %s/5000", i, tk, want[i])
		}
	}
}

func TestScheduleEndDate(t *testing.T) {
	g := mustGenerator(t, core.Weekly, values("2020-11-01", 654321, "2020-11-16", nil))
	ticks := Take(g, 10)
	if len(ticks) != 3 {
		t.Fatalf("got %d ticks, want 3", len(ticks))
	}
	if last := ticks[len(ticks)-1].Date.String(); last != "2020-11-15" {
		t.Errorf("last deadline = %s, want 2020-11-15", last)
	}

	terminal, ok := g.Next()
	if ok {
		t.Fatal("expected exhausted generator")
	}
	if terminal.Date.String() != "2020-11-22" || !terminal.Amount.IsZero() {
		t.Errorf("terminal tick = %+v", terminal)
	}
	if again, ok := g.Next(); ok || !again.Date.Equal(terminal.Date) {
		t.Errorf("exhausted generator must keep returning the terminal tick, got %+v %v", again, ok)
	}
}

func TestMonthlySchedule(t *testing.T) {
	g := mustGenerator(t, core.Monthly, values("2020-11-01", 4000))
	want := []string{
		"2020-10-11", "2020-10-18", "2020-10-25", "2020-11-01",
		"2020-11-10", "2020-11-17", "2020-11-24", "2020-12-01",
		"2020-12-11", "2020-12-18", "2020-12-25", "2021-01-01",
	}
	ticks := Take(g, len(want))
	for i, tk := range ticks {
		if tk.Date.String() != want[i] {
			t.Errorf("tick %d date = %s, want %s", i, tk.Date, want[i])
		}
		if tk.Amount.Cents != 1000 {
			t.Errorf("tick %d amount = %d, want 1000", i, tk.Amount.Cents)
		}
	}
}

func TestMonthlyRounding(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		first  int64
		weekly int64
	}{
		{"remainder absorbed by earliest tick", 1111, 277, 278},
		{"half rounds up", 1002, 249, 251},
		{"even split", 4000, 1000, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGenerator(t, core.Monthly, values("2020-11-01", tt.amount))
			ticks := Take(g, 4)
			if got := sum(ticks); got != int64(tt.amount) {
				t.Fatalf("sum = %d, want %d", got, tt.amount)
			}
			if ticks[0].Amount.Cents != tt.first {
				t.Errorf("first tick = %d, want %d", ticks[0].Amount.Cents, tt.first)
			}
			for _, tk := range ticks[1:] {
				if tk.Amount.Cents != tt.weekly {
					t.Errorf("tick %s = %d, want %d", tk.Date, tk.Amount.Cents, tt.weekly)
				}
			}
		})
	}
}

func TestMonthlyValueChange(t *testing.T) {
	g := mustGenerator(t, core.Monthly, values("2020-11-01", 1111, "2021-01-01", 4321))
	for _, want := range []struct {
		deadline string
		total    int64
	}{
		{"2020-11-01", 1111},
		{"2020-12-01", 1111},
		{"2021-01-01", 4321},
	} {
		ticks := Take(g, 4)
		if got := ticks[3].Date.String(); got != want.deadline {
			t.Errorf("deadline = %s, want %s", got, want.deadline)
		}
		if got := sum(ticks); got != want.total {
			t.Errorf("deadline %s total = %d, want %d", want.deadline, got, want.total)
		}
	}
}

func TestYearlySchedule(t *testing.T) {
	g := mustGenerator(t, core.Yearly, values("2020-11-01", 654321))
	ticks := Until(g, core.MustParseDate("2020-11-01"))
	if len(ticks) != 52 {
		t.Fatalf("got %d ticks, want 52", len(ticks))
	}
	if last := ticks[51].Date.String(); last != "2020-11-01" {
		t.Errorf("last tick = %s", last)
	}
	if got := sum(ticks); got != 654321 {
		t.Errorf("sum = %d, want 654321", got)
	}
}

func TestValueHistoryOrder(t *testing.T) {
	// Changes may be appended out of date order.
	g := mustGenerator(t, core.Weekly, values("2020-11-15", 200, "2020-11-01", 100))
	ticks := Take(g, 3)
	got := []int64{ticks[0].Amount.Cents, ticks[1].Amount.Cents, ticks[2].Amount.Cents}
	want := []int64{100, 100, 200}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("amounts = %v, want %v", got, want)
		}
	}
}

func TestNewGeneratorErrors(t *testing.T) {
	if _, err := NewGenerator("x", core.Weekly, nil); !errors.Is(err, core.ErrEmptyScheduleDefinition) {
		t.Errorf("expected ErrEmptyScheduleDefinition, got %v", err)
	}
	if _, err := NewGenerator("x", "DAILY", values("2020-11-01", 1)); !errors.Is(err, core.ErrInvalidCadence) {
		t.Errorf("expected ErrInvalidCadence, got %v", err)
	}
}

func TestCombinedOrdering(t *testing.T) {
	high := mustGenerator(t, core.Monthly, values("2021-03-01", 1000))
	mid := mustGenerator(t, core.Yearly, values("2022-01-31", 52000))
	low := mustGenerator(t, core.Weekly, values("2021-02-08", 300))
	high.target, mid.target, low.target = "high", "mid", "low"

	m := Merge(
		Prioritized{Source: low, Priority: 3},
		Prioritized{Source: high, Priority: 1},
		Prioritized{Source: mid, Priority: 2},
	)

	want := []Tick{
		{"high", core.MustParseDate("2021-02-08"), core.Cents(250)},
		{"mid", core.MustParseDate("2021-02-08"), core.Cents(1000)},
		{"low", core.MustParseDate("2021-02-08"), core.Cents(300)},
		{"high", core.MustParseDate("2021-02-15"), core.Cents(250)},
		{"mid", core.MustParseDate("2021-02-15"), core.Cents(1000)},
		{"low", core.MustParseDate("2021-02-15"), core.Cents(300)},
		{"high", core.MustParseDate("2021-02-22"), core.Cents(250)},
		{"mid", core.MustParseDate("2021-02-22"), core.Cents(1000)},
		{"low", core.MustParseDate("2021-02-22"), core.Cents(300)},
		{"high", core.MustParseDate("2021-03-01"), core.Cents(250)},
		{"mid", core.MustParseDate("2021-03-01"), core.Cents(1000)},
		{"low", core.MustParseDate("2021-03-01"), core.Cents(300)},
		{"mid", core.MustParseDate("2021-03-08"), core.Cents(1000)},
		{"low", core.MustParseDate("2021-03-08"), core.Cents(300)},
		{"high", core.MustParseDate("2021-03-11"), core.Cents(250)},
	}
	got := Take(m, len(want))
	for i := range want {
		if got[i].Target != want[i].Target || !got[i].Date.Equal(want[i].Date) || got[i].Amount != want[i].Amount {
			t.Errorf("tick %d = %s %s %d, want %s %s %d", i,
				got[i].Target, got[i].Date, got[i].Amount.Cents,
				want[i].Target, want[i].Date, want[i].Amount.Cents)
		}
	}
}

func TestMergeEqualPriorityKeepsSourceOrder(t *testing.T) {
	a := mustGenerator(t, core.Weekly, values("2021-01-04", 1))
	b := mustGenerator(t, core.Weekly, values("2021-01-04", 2))
	a.target, b.target = "a", "b"
	m := Merge(Prioritized{Source: b, Priority: 1}, Prioritized{Source: a, Priority: 1})
	got := Take(m, 4)
	order := got[0].Target + got[1].Target + got[2].Target + got[3].Target
	if order != "baba" {
		t.Errorf("order = %s, want baba", order)
	}
}

func TestMergeDropsExhaustedSources(t *testing.T) {
	a := mustGenerator(t, core.Weekly, values("2021-01-04", 1, "2021-01-05", nil))
	b := mustGenerator(t, core.Weekly, values("2021-01-11", 2, "2021-01-19", nil))
	m := Merge(Prioritized{Source: a, Priority: 1}, Prioritized{Source: b, Priority: 1})
	got := Take(m, 10)
	if len(got) != 3 {
		t.Fatalf("got %d ticks, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Errorf("ticks out of order: %s before %s", got[i].Date, got[i-1].Date)
		}
	}
}

func TestRegistry(t *testing.T) {
	start := core.MustParseDate("2020-11-01")
	events := []event.Event{
		event.CreateTarget{StartDate: start, TargetName: "rent", TargetValue: amount(80000), Cadence: core.Monthly, Priority: 1},
		event.CreateAccount{AccountName: "checking"},
		event.CreateTarget{StartDate: start, TargetName: "food", TargetValue: amount(5000), Cadence: core.Weekly, Priority: 2},
		event.CreateTarget{StartDate: core.MustParseDate("2021-01-01"), TargetName: "rent", TargetValue: amount(90000), Cadence: core.Monthly, Priority: 3},
		event.CreateTarget{StartDate: core.MustParseDate("2021-06-01"), TargetName: "rent", TargetValue: nil, Cadence: core.Monthly, Priority: 3},
	}
	ts := Registry(events)

	if got := ts.Names(); len(got) != 2 || got[0] != "rent" || got[1] != "food" {
		t.Fatalf("names = %v, want [rent food]", got)
	}
	rent, ok := ts.Get("rent")
	if !ok {
		t.Fatal("rent not found")
	}
	if rent.Priority != 3 || len(rent.Values) != 3 {
		t.Errorf("rent = %+v", rent)
	}

	tests := []struct {
		date string
		want *core.Money
	}{
		{"2020-10-01", nil},
		{"2020-12-15", amount(80000)},
		{"2021-01-01", amount(90000)},
		{"2021-07-01", nil},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got := rent.Current(core.MustParseDate(tt.date))
			if (got == nil) != (tt.want == nil) || got != nil && *got != *tt.want {
				t.Errorf("Current(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}

	if ts.Has("missing") {
		t.Error("unexpected target")
	}
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		cadence core.Cadence
		n       int
		next    string
	}{
		{core.Weekly, 1, "2021-02-07"},
		{core.Monthly, 4, "2021-03-03"},
		{core.Yearly, 52, "2022-01-31"},
	}
	from := core.MustParseDate("2021-01-31")
	for _, tt := range tests {
		t.Run(string(tt.cadence), func(t *testing.T) {
			s, err := StrategyFor(tt.cadence)
			if err != nil {
				t.Fatalf("StrategyFor: %v", err)
			}
			if s.TicksPerDeadline() != tt.n {
				t.Errorf("TicksPerDeadline = %d, want %d", s.TicksPerDeadline(), tt.n)
			}
			if got := s.NextDeadline(from).String(); got != tt.next {
				t.Errorf("NextDeadline = %s, want %s", got, tt.next)
			}
		})
	}
}
