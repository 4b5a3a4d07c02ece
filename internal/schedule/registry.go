package schedule

import (
	"budgie/internal/core"
	"budgie/internal/event"
)

// Target is a named recurring saving goal folded from CreateTarget events.
type Target struct {
	Name     string        `json:"name"`
	Cadence  core.Cadence  `json:"cadence"`
	Priority int           `json:"priority"`
	Values   []ValueChange `json:"values"`
}

// Generator returns a fresh tick stream for the target.
func (t Target) Generator() (*Generator, error) {
	return NewGenerator(t.Name, t.Cadence, t.Values)
}

// Current returns the value in effect on date, or nil when none is.
func (t Target) Current(date core.Date) *core.Money {
	var (
		current *core.Money
		at      core.Date
		found   bool
	)
	for _, v := range t.Values {
		if v.Effective.After(date) {
			continue
		}
		if !found || !v.Effective.Before(at) {
			current, at, found = v.Amount, v.Effective, true
		}
	}
	return current
}

// Targets is the set of known targets in order of first creation.
type Targets struct {
	list   []Target
	byName map[string]int
}

// Registry folds the log's CreateTarget events. A repeated name appends to
// that target's value history; the latest cadence and priority win.
func Registry(events []event.Event) Targets {
	ts := Targets{byName: make(map[string]int)}
	for _, e := range events {
		ct, ok := e.(event.CreateTarget)
		if !ok {
			continue
		}
		ts.apply(ct)
	}
	return ts
}

func (ts *Targets) apply(ct event.CreateTarget) {
	change := ValueChange{Effective: ct.StartDate}
	if ct.TargetValue != nil {
		amount := *ct.TargetValue
		change.Amount = &amount
	}
	idx, ok := ts.byName[ct.TargetName]
	if !ok {
		ts.byName[ct.TargetName] = len(ts.list)
		ts.list = append(ts.list, Target{
			Name:     ct.TargetName,
			Cadence:  ct.Cadence,
			Priority: ct.Priority,
			Values:   []ValueChange{change},
		})
		return
	}
	t := &ts.list[idx]
	t.Cadence = ct.Cadence
	t.Priority = ct.Priority
	t.Values = append(t.Values, change)
}

// All returns the targets in creation order. The slice is a copy.
func (ts Targets) All() []Target {
	out := make([]Target, len(ts.list))
	copy(out, ts.list)
	return out
}

// Get looks up a target by name.
func (ts Targets) Get(name string) (Target, bool) {
	idx, ok := ts.byName[name]
	if !ok {
		return Target{}, false
	}
	return ts.list[idx], true
}

// Has reports whether a target with that name exists.
func (ts Targets) Has(name string) bool {
	_, ok := ts.byName[name]
	return ok
}

// Names returns target names in creation order.
func (ts Targets) Names() []string {
	out := make([]string, len(ts.list))
	for i, t := range ts.list {
		out[i] = t.Name
	}
	return out
}

func (ts Targets) Len() int { return len(ts.list) }
