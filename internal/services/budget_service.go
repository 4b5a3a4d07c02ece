package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/ledger"
	applog "budgie/internal/log"
	"budgie/internal/store"
)

// Publisher announces appended events to downstream consumers.
type Publisher interface {
	PublishEventAppended(ctx context.Context, eventType string, version int) error
	Close() error
}

// BudgetService orchestrates budget commands across the event store and AMQP.
// Commands append to the log first; publishing is best effort.
type BudgetService struct {
	store     store.Store
	publisher Publisher
	logger    *applog.StructuredLogger

	// mu serializes the read-check-append sequence of commands.
	mu sync.Mutex
}

func NewBudgetService(s store.Store, publisher Publisher) *BudgetService {
	return &BudgetService{
		store:     s,
		publisher: publisher,
		logger:    applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBudget)),
	}
}

// WithLogger replaces the service logger.
func (s *BudgetService) WithLogger(logger *applog.Logger) *BudgetService {
	s.logger = applog.NewStructuredLogger(logger.WithComponent(applog.ComponentBudget))
	return s
}

// Store exposes the underlying event store, for readers that fold it directly.
func (s *BudgetService) Store() store.Store {
	return s.store
}

// Events loads an immutable snapshot of the log.
func (s *BudgetService) Events(ctx context.Context) ([]event.Event, error) {
	events, err := store.Snapshot(ctx, s.store)
	if err != nil {
		s.logger.LogError(ctx, "Failed to replay event log", err, applog.OpReplay, nil)
		return nil, err
	}
	return events, nil
}

// CreateAccount opens a new account. Names must be unique.
func (s *BudgetService) CreateAccount(ctx context.Context, name string) error {
	e := event.CreateAccount{AccountName: name}
	return s.append(ctx, e, applog.NewFields().WithAccount(name), func(events []event.Event) error {
		if ledger.HasAccount(events, name) {
			return fmt.Errorf("%w: %q", core.ErrAccountExists, name)
		}
		return nil
	})
}

// Credit records money entering an account, itemized by target.
func (s *BudgetService) Credit(ctx context.Context, account string, date core.Date, amounts core.Itemization, memo string) error {
	return s.transact(ctx, account, date, amounts, memo)
}

// Debit records money leaving an account. Amounts are given as positive
// values and stored negated.
func (s *BudgetService) Debit(ctx context.Context, account string, date core.Date, amounts core.Itemization, memo string) error {
	return s.transact(ctx, account, date, amounts.Negate(), memo)
}

func (s *BudgetService) transact(ctx context.Context, account string, date core.Date, amounts core.Itemization, memo string) error {
	e := event.Transact{
		AccountName:     account,
		Date:            date,
		ItemizedAmounts: amounts.Clone(),
		Memo:            memo,
	}
	fields := applog.NewFields().WithAccount(account).WithAmount(amounts.Total().Cents)
	return s.append(ctx, e, fields, requireAccounts(account))
}

// Transfer moves unallocated money between two existing accounts.
func (s *BudgetService) Transfer(ctx context.Context, source, destination string, value core.Money, date core.Date) error {
	e := event.Transfer{
		SourceAccount:      source,
		DestinationAccount: destination,
		Value:              value,
		Date:               date,
	}
	fields := applog.NewFields().WithAccount(source).WithAmount(value.Cents)
	return s.append(ctx, e, fields, requireAccounts(source, destination))
}

// CreateTarget defines a target, or appends to its value history when the
// name exists. A nil value ends the schedule from start on.
func (s *BudgetService) CreateTarget(ctx context.Context, name string, value *core.Money, cadence core.Cadence, priority int, start core.Date) error {
	e := event.CreateTarget{
		StartDate:   start,
		TargetName:  name,
		TargetValue: value,
		Cadence:     cadence,
		Priority:    priority,
	}
	fields := applog.NewFields().WithTarget(name)
	if value != nil {
		fields = fields.WithAmount(value.Cents)
	}
	return s.append(ctx, e, fields, nil)
}

func requireAccounts(names ...string) func([]event.Event) error {
	return func(events []event.Event) error {
		for _, name := range names {
			if !ledger.HasAccount(events, name) {
				return fmt.Errorf("%w: %q", core.ErrUnknownAccount, name)
			}
		}
		return nil
	}
}

// append validates e, runs check against the current log and persists e.
// Publish failures are logged and never fail the command.
func (s *BudgetService) append(ctx context.Context, e event.Event, fields applog.LogFields, check func([]event.Event) error) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrInvalidEvent, e.Type(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if check != nil {
		events, err := store.Snapshot(ctx, s.store)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		if err := check(events); err != nil {
			return err
		}
	}

	if err := s.store.Append(ctx, e); err != nil {
		return fmt.Errorf("append %s: %w", e.Type(), err)
	}
	s.logger.LogEventAppended(ctx, string(e.Type()), e.Version(), fields)

	if err := s.publish(ctx, e); err != nil {
		s.logger.LogError(ctx, "Failed to publish event appended message", err,
			applog.OpPublish, applog.NewFields().WithEvent(string(e.Type()), e.Version()))
	}
	return nil
}

func (s *BudgetService) publish(ctx context.Context, e event.Event) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishEventAppended(ctx, string(e.Type()), e.Version())
}

// Close closes both the store and the publisher.
func (s *BudgetService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %w", errors.Join(errs...))
	}

	return nil
}
