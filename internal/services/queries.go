package services

import (
	"context"
	"fmt"

	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/ledger"
	"budgie/internal/planning"
	"budgie/internal/schedule"
)

// Snapshot gathers every view of the budget as of one date.
type Snapshot struct {
	AsOf           core.Date                            `json:"asOf"`
	EventCount     int                                  `json:"eventCount"`
	Balances       map[string]core.Money                `json:"balances"`
	TotalBalance   core.Money                           `json:"totalBalance"`
	Transactions   map[string][]ledger.TransactionEntry `json:"transactions"`
	Targets        []schedule.Target                    `json:"targets"`
	Budgets        map[string]planning.TargetBudget     `json:"budgets"`
	Runway         map[string]*core.Date                `json:"runway"`
	EarliestRunway *core.Date                           `json:"earliestRunway"`
	RunwayWeeks    int                                  `json:"runwayWeeks"`
	SpendingRate   core.Money                           `json:"spendingRate"`
}

// Accounts lists the account names in creation order.
func (s *BudgetService) Accounts(ctx context.Context) ([]string, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Accounts(events), nil
}

// Targets returns the target registry.
func (s *BudgetService) Targets(ctx context.Context) (schedule.Targets, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return schedule.Targets{}, err
	}
	return schedule.Registry(events), nil
}

func (s *BudgetService) Balances(ctx context.Context, asOf core.Date) (map[string]core.Money, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Balances(events, asOf)
}

func (s *BudgetService) Transactions(ctx context.Context, account string) ([]ledger.TransactionEntry, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Transactions(events, account)
}

func (s *BudgetService) Budgets(ctx context.Context, asOf core.Date) (map[string]planning.TargetBudget, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return planning.Budgets(events, asOf)
}

func (s *BudgetService) Runway(ctx context.Context, asOf core.Date) (map[string]*core.Date, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return planning.Runway(events, asOf)
}

// RunwayTrend samples the runway from the given date, or from the earliest
// transaction when from is nil. An empty log yields no points.
func (s *BudgetService) RunwayTrend(ctx context.Context, from *core.Date, to core.Date) ([]planning.TrendPoint, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	start, ok := trendStart(events, from)
	if !ok {
		return nil, nil
	}
	return planning.RunwayTrend(events, start, to)
}

func trendStart(events []event.Event, from *core.Date) (core.Date, bool) {
	if from != nil {
		return *from, true
	}
	return event.EarliestTransactionDate(events)
}

// SpendingRate is the projected monthly spending from asOf.
func (s *BudgetService) SpendingRate(ctx context.Context, asOf core.Date) (core.Money, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return planning.ProjectedSpendingRate(events, asOf)
}

func (s *BudgetService) HistoricalExpenses(ctx context.Context, from, to core.Date) (map[string]core.Money, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.HistoricalExpenses(events, from, to), nil
}

// ExpenseRate is the average monthly target spending over [from, to].
func (s *BudgetService) ExpenseRate(ctx context.Context, from, to core.Date) (core.Money, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return planning.HistoricalExpenseRate(events, from, to), nil
}

// Snapshot computes every view from a single read of the log.
func (s *BudgetService) Snapshot(ctx context.Context, asOf core.Date) (*Snapshot, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(events, asOf)
}

// BuildSnapshot computes every view over an already loaded log.
func BuildSnapshot(events []event.Event, asOf core.Date) (*Snapshot, error) {
	balances, err := ledger.Balances(events, asOf)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}

	accounts := ledger.Accounts(events)
	transactions := make(map[string][]ledger.TransactionEntry, len(accounts))
	for _, name := range accounts {
		entries, err := ledger.Transactions(events, name)
		if err != nil {
			return nil, fmt.Errorf("transactions %q: %w", name, err)
		}
		transactions[name] = entries
	}

	budgets, err := planning.Budgets(events, asOf)
	if err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}
	runway, err := planning.Runway(events, asOf)
	if err != nil {
		return nil, fmt.Errorf("runway: %w", err)
	}
	rate, err := planning.ProjectedSpendingRate(events, asOf)
	if err != nil {
		return nil, fmt.Errorf("spending rate: %w", err)
	}

	snap := &Snapshot{
		AsOf:         asOf,
		EventCount:   len(events),
		Balances:     balances,
		TotalBalance: ledger.TotalBalance(balances),
		Transactions: transactions,
		Targets:      schedule.Registry(events).All(),
		Budgets:      budgets,
		Runway:       runway,
		SpendingRate: rate,
	}
	if earliest, ok := planning.EarliestRunway(runway); ok {
		snap.EarliestRunway = &earliest
		snap.RunwayWeeks = planning.WeeksBetween(asOf, earliest)
	}
	return snap, nil
}
