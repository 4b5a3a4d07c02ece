package planning

import (
	"testing"

	"budgie/internal/core"
	"budgie/internal/event"
)

var start = core.MustParseDate("2020-11-01")

func day(n int) core.Date { return start.AddDays(n) }

func money(c int64) *core.Money {
	m := core.Cents(c)
	return &m
}

func account(name string) event.Event { return event.CreateAccount{AccountName: name} }

func credit(account string, d core.Date, items core.Itemization) event.Event {
	return event.Transact{AccountName: account, Date: d, ItemizedAmounts: items}
}

func debit(account string, d core.Date, items core.Itemization) event.Event {
	return event.Transact{AccountName: account, Date: d, ItemizedAmounts: items.Negate()}
}

func target(d core.Date, name string, cents int64, cadence core.Cadence, priority int) event.Event {
	return event.CreateTarget{StartDate: d, TargetName: name, TargetValue: money(cents), Cadence: cadence, Priority: priority}
}

func cents(key string, c int64) core.Itemization {
	return core.Itemization{key: core.Cents(c)}
}

func TestGroceryBudget(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		target(start, "groceries", 50, core.Weekly, 1),
		credit("Checking", start, cents(core.Unallocated, 1000)),
	}
	steps := []struct {
		name   string
		append []event.Event
		asOf   core.Date
		want   int64
	}{
		{"first tick", nil, day(0), 50},
		{"within budget", []event.Event{debit("Checking", day(2), cents("groceries", 25))}, day(2), 25},
		{"second week accrues", nil, day(7), 75},
		{"overspend", []event.Event{debit("Checking", day(8), cents("groceries", 100))}, day(8), -25},
		{"reimbursed", []event.Event{credit("Checking", day(9), cents("groceries", 50))}, day(9), 25},
	}
	for _, step := range steps {
		log = append(log, step.append...)
		t.Run(step.name, func(t *testing.T) {
			budgets, err := Budgets(log, step.asOf)
			if err != nil {
				t.Fatalf("Budgets: %v", err)
			}
			if got := budgets["groceries"].Accrued.Cents; got != step.want {
				t.Errorf("groceries on %s = %d, want %d", step.asOf, got, step.want)
			}
		})
	}
}

func TestBudgetsApplyFutureDatedDeltas(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		target(start, "groceries", 50, core.Weekly, 1),
		debit("Checking", day(30), cents("groceries", 20)),
		debit("Checking", day(30), cents("not a target", 20)),
	}
	budgets, err := Budgets(log, start)
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if got := budgets["groceries"].Accrued.Cents; got != 30 {
		t.Errorf("groceries = %d, want 30", got)
	}
	if _, ok := budgets["not a target"]; ok {
		t.Error("deltas for unknown targets must be dropped")
	}
}

func TestRentAndHouseholdExpenses(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		credit("Checking", start, cents(core.Unallocated, 1000)),
		target(start, "rent", 800, core.Monthly, 1),
		target(start, "supplies", 100, core.Monthly, 1),
		debit("Checking", day(1), core.Itemization{"rent": core.Cents(800), "supplies": core.Cents(50)}),
	}

	spent := ExpendituresByTarget(log, day(1))
	if spent["rent"].Cents != 800 || spent["supplies"].Cents != 50 {
		t.Errorf("expenditures = %v", spent)
	}
	if spent := ExpendituresByTarget(log, day(0)); len(spent) != 0 {
		t.Errorf("expenditures before the debit = %v, want none", spent)
	}

	budgets, err := Budgets(log, day(1))
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if budgets["supplies"].Accrued.Cents != 50 || budgets["rent"].Accrued.Cents != 0 {
		t.Errorf("budgets = supplies %d rent %d", budgets["supplies"].Accrued.Cents, budgets["rent"].Accrued.Cents)
	}
}

func TestRunwayGroceriesAndRent(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		credit("Checking", start, cents(core.Unallocated, 300)),
		account("Savings"),
		credit("Savings", start, cents(core.Unallocated, 900)),
		account("Credit Card"),
		debit("Credit Card", start, cents(core.Unallocated, 200)),
		target(start, "groceries", 100, core.Weekly, 2),
		target(day(21), "rent", 500, core.Monthly, 1),
	}

	steps := []struct {
		name      string
		append    []event.Event
		asOf      core.Date
		rent      core.Date
		groceries core.Date
	}{
		{"initial", nil, day(0), day(21), day(28)},
		{"spending within budget", []event.Event{debit("Checking", day(1), cents("groceries", 100))}, day(1), day(21), day(28)},
		{"overspending shortens runway", []event.Event{debit("Checking", day(1), cents("groceries", 100))}, day(1), day(21), day(21)},
	}
	for _, step := range steps {
		log = append(log, step.append...)
		t.Run(step.name, func(t *testing.T) {
			runway, err := Runway(log, step.asOf)
			if err != nil {
				t.Fatalf("Runway: %v", err)
			}
			if got := runway["rent"]; got == nil || !got.Equal(step.rent) {
				t.Errorf("rent runway = %v, want %s", got, step.rent)
			}
			if got := runway["groceries"]; got == nil || !got.Equal(step.groceries) {
				t.Errorf("groceries runway = %v, want %s", got, step.groceries)
			}
		})
	}
}

func TestRunwayStopsAtFirstUnaffordableTick(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		credit("Checking", start, cents(core.Unallocated, 150)),
		target(start, "big", 100, core.Weekly, 1),
		target(start, "small", 10, core.Weekly, 2),
	}
	runway, err := Runway(log, start)
	if err != nil {
		t.Fatalf("Runway: %v", err)
	}
	// small's second tick would fit the remaining 40, but big's comes first.
	for _, name := range []string{"big", "small"} {
		if got := runway[name]; got == nil || !got.Equal(start) {
			t.Errorf("%s runway = %v, want %s", name, got, start)
		}
	}
}

func TestRunwayUnfundedTargets(t *testing.T) {
	tests := []struct {
		name string
		log  []event.Event
	}{
		{"no money", []event.Event{
			account("Checking"),
			target(start, "rent", 500, core.Weekly, 1),
		}},
		{"overspend exceeds balance", []event.Event{
			account("Checking"),
			credit("Checking", start, cents(core.Unallocated, 100)),
			target(start, "rent", 50, core.Weekly, 1),
			debit("Checking", start, cents("rent", 80)),
			credit("Checking", start, cents(core.Unallocated, 80)),
			debit("Checking", start, cents("rent", 80)),
			credit("Checking", start, cents(core.Unallocated, 80)),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runway, err := Runway(tt.log, start)
			if err != nil {
				t.Fatalf("Runway: %v", err)
			}
			got, ok := runway["rent"]
			if !ok {
				t.Fatal("every target must appear in the runway")
			}
			if got != nil {
				t.Errorf("rent runway = %s, want unfunded", got)
			}
			if _, ok := EarliestRunway(runway); ok {
				t.Error("EarliestRunway must report no funded target")
			}
		})
	}
}

func TestRunwayZeroValueTargetTerminates(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		credit("Checking", start, cents(core.Unallocated, 100)),
		target(start, "placeholder", 0, core.Weekly, 1),
	}
	runway, err := Runway(log, start)
	if err != nil {
		t.Fatalf("Runway: %v", err)
	}
	if runway["placeholder"] == nil {
		t.Error("zero-value target should be funded up to the horizon")
	}
}

func TestRunwayTrend(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		credit("Checking", start, cents(core.Unallocated, 10000)),
		target(start, "rent", 800, core.Monthly, 2),
		target(start, "food", 200, core.Monthly, 1),
		credit("Checking", day(30), cents(core.Unallocated, 1000)),
		credit("Checking", day(60), cents(core.Unallocated, 1)),
	}
	points, err := RunwayTrend(log, start, day(61))
	if err != nil {
		t.Fatalf("RunwayTrend: %v", err)
	}
	want := []TrendPoint{
		{Date: start, Weeks: 39},
		{Date: day(30), Weeks: 39},
		{Date: day(61), Weeks: 35},
	}
	if len(points) != len(want) {
		t.Fatalf("got %d points, want %d: %v", len(points), len(want), points)
	}
	for i := range want {
		if !points[i].Date.Equal(want[i].Date) || points[i].Weeks != want[i].Weeks {
			t.Errorf("point %d = %s/%d, want %s/%d", i, points[i].Date, points[i].Weeks, want[i].Date, want[i].Weeks)
		}
	}
}

func TestRunwayTrendStartsMidMonth(t *testing.T) {
	log := []event.Event{
		account("Checking"),
		credit("Checking", core.MustParseDate("2020-10-31"), cents(core.Unallocated, 10000)),
		target(start, "rent", 1000, core.Monthly, 1),
	}
	points, err := RunwayTrend(log, core.MustParseDate("2020-10-31"), core.MustParseDate("2020-11-15"))
	if err != nil {
		t.Fatalf("RunwayTrend: %v", err)
	}
	if len(points) != 2 || points[0].Date.String() != "2020-10-31" || points[1].Date.String() != "2020-11-01" {
		t.Errorf("points = %v", points)
	}
}

func TestWeeksBetween(t *testing.T) {
	tests := []struct {
		a, b core.Date
		want int
	}{
		{start, start, 0},
		{start, day(273), 39},
		{start, day(10), 1},
		{start, day(11), 2},
		{day(10), start, -1},
	}
	for _, tt := range tests {
		if got := WeeksBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("WeeksBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestProjectedSpendingRate(t *testing.T) {
	tests := []struct {
		name string
		log  []event.Event
		want int64
	}{
		{"no targets", nil, 0},
		{"two monthly targets", []event.Event{
			target(start, "rent", 800, core.Monthly, 2),
			target(start, "food", 200, core.Monthly, 1),
		}, 1000},
		{"weekly target", []event.Event{
			target(start, "coffee", 100, core.Weekly, 1),
		}, 442},
		{"ended target", []event.Event{
			target(start, "gym", 1200, core.Monthly, 1),
			event.CreateTarget{StartDate: day(1), TargetName: "gym", Cadence: core.Monthly, Priority: 1},
		}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProjectedSpendingRate(tt.log, start)
			if err != nil {
				t.Fatalf("ProjectedSpendingRate: %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("rate = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestHistoricalExpenseRate(t *testing.T) {
	log := []event.Event{
		account("A"),
		credit("A", day(0), cents(core.Unallocated, 5000)),
		debit("A", day(1), cents(core.Unallocated, 1000)),
		debit("A", day(3), cents("food", 300)),
		credit("A", day(4), cents("food", 100)),
	}
	tests := []struct {
		name string
		to   core.Date
		want int64
	}{
		{"one month", day(6), 200},
		{"three months", core.MustParseDate("2021-01-15"), 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HistoricalExpenseRate(log, start, tt.to); got.Cents != tt.want {
				t.Errorf("rate = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}
