package schedule

import (
	"sort"

	"budgie/internal/core"
)

// Tick is one scheduled partial accrual toward a target's deadline.
type Tick struct {
	Target string     `json:"target"`
	Date   core.Date  `json:"date"`
	Amount core.Money `json:"amount"`
}

// ValueChange sets a target's amount per deadline from Effective on.
// A nil Amount ends the schedule.
type ValueChange struct {
	Effective core.Date   `json:"effective"`
	Amount    *core.Money `json:"amount"`
}

// Source is a pull cursor over ticks in non-decreasing date order.
// Next reports false once the stream is exhausted.
type Source interface {
	Next() (Tick, bool)
}

// Generator yields the ticks of a single target. It is not safe for
// concurrent use; create one per consumer.
type Generator struct {
	target   string
	strategy CadenceStrategy
	values   []ValueChange

	deadline core.Date
	sub      int // index of the next tick within the current deadline
	weekly   core.Money
	first    core.Money
	done     bool
}

// NewGenerator creates a generator anchored on the earliest value change.
func NewGenerator(target string, cadence core.Cadence, values []ValueChange) (*Generator, error) {
	if len(values) == 0 {
		return nil, core.ErrEmptyScheduleDefinition
	}
	strategy, err := StrategyFor(cadence)
	if err != nil {
		return nil, err
	}
	sorted := make([]ValueChange, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Effective.Before(sorted[j].Effective)
	})
	return &Generator{
		target:   target,
		strategy: strategy,
		values:   sorted,
		deadline: sorted[0].Effective,
	}, nil
}

// amountFor returns the latest value effective on or before date.
// On equal dates the change appended last wins.
func (g *Generator) amountFor(date core.Date) *core.Money {
	for i := len(g.values) - 1; i >= 0; i-- {
		if !g.values[i].Effective.After(date) {
			return g.values[i].Amount
		}
	}
	return nil
}

// Next returns the next tick. Once the value history ends it returns the
// zero-amount terminal tick dated on the unfunded deadline, and false.
func (g *Generator) Next() (Tick, bool) {
	if g.done {
		return g.terminal(), false
	}
	n := g.strategy.TicksPerDeadline()
	if g.sub == 0 {
		amount := g.amountFor(g.deadline)
		if amount == nil {
			g.done = true
			return g.terminal(), false
		}
		g.weekly = amount.DivRound(int64(n))
		g.first = amount.Sub(g.weekly.Mul(int64(n - 1)))
	}

	tick := Tick{
		Target: g.target,
		Date:   g.deadline.AddDays(-7 * (n - 1 - g.sub)),
		Amount: g.weekly,
	}
	if g.sub == 0 {
		tick.Amount = g.first
	}

	g.sub++
	if g.sub == n {
		g.sub = 0
		g.deadline = g.strategy.NextDeadline(g.deadline)
	}
	return tick, true
}

func (g *Generator) terminal() Tick {
	return Tick{Target: g.target, Date: g.deadline}
}

// Until drains ticks dated on or before date. The tick that crossed the
// boundary is consumed and discarded.
func Until(src Source, date core.Date) []Tick {
	var out []Tick
	for {
		t, ok := src.Next()
		if !ok || t.Date.After(date) {
			return out
		}
		out = append(out, t)
	}
}

// Take returns at most n ticks.
func Take(src Source, n int) []Tick {
	out := make([]Tick, 0, n)
	for len(out) < n {
		t, ok := src.Next()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out
}
