// Package store persists the append-only event log.
//
// Every backend keeps events in their encoded record form and decodes them
// on replay, upgrading legacy records through the migration registry so
// projections only ever see current event versions.
package store

import (
	"context"
	"fmt"

	"budgie/internal/core"
	"budgie/internal/event"
)

// Store is an append-only, single-writer event log.
type Store interface {
	// Append validates and persists one event at the end of the log.
	Append(ctx context.Context, e event.Event) error
	// Replay calls fn for every event in append order. A non-nil error from
	// fn stops the replay and is returned unchanged.
	Replay(ctx context.Context, fn func(event.Event) error) error
	Close() error
}

// Project folds the whole log in append order.
func Project[T any](ctx context.Context, s Store, initial T, fold func(T, event.Event) T) (T, error) {
	acc := initial
	err := s.Replay(ctx, func(e event.Event) error {
		acc = fold(acc, e)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return acc, nil
}

// Snapshot loads the log into memory. Callers must treat the slice as
// read-only; projections share it.
func Snapshot(ctx context.Context, s Store) ([]event.Event, error) {
	return Project(ctx, s, []event.Event(nil), func(acc []event.Event, e event.Event) []event.Event {
		return append(acc, e)
	})
}

// Unavailable wraps a persistence failure with core.ErrStoreUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
}

// Encode validates and serializes an event before it reaches a backend.
func Encode(e event.Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("append: nil event")
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("append %s: %w", e.Type(), err)
	}
	return event.Encode(e)
}

// Decode parses one stored record, applying the default migrations.
func Decode(data []byte) (event.Event, error) {
	return event.Unmarshal(data, defaultMigrations)
}

var defaultMigrations = event.DefaultMigrations()
