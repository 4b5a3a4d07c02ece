package event

import (
	"fmt"

	"budgie/internal/core"
)

// Migration upgrades a record by at least one version.
type Migration func(Record) (Record, error)

// Migrations is a registry of upgrade steps keyed by (type, version).
type Migrations struct {
	steps map[Key]Migration
}

// NewMigrations returns an empty registry.
func NewMigrations() *Migrations {
	return &Migrations{steps: make(map[Key]Migration)}
}

// DefaultMigrations returns the registry with every legacy schema upgrade.
func DefaultMigrations() *Migrations {
	m := NewMigrations()
	m.Register(TypeTransact, 1, transactV1ToV2)
	m.Register(TypeTransfer, 1, transferV1ToV2)
	m.Register(TypeCreateTarget, 1, createTargetV1ToV2)
	return m
}

// Register adds an upgrade step for records of type t at version.
func (m *Migrations) Register(t Type, version int, fn Migration) {
	m.steps[Key{Type: t, Version: version}] = fn
}

// Len returns the number of registered steps.
func (m *Migrations) Len() int {
	return len(m.steps)
}

// Upgrade applies registered steps until none matches the record's key.
// A step that does not raise the version, or a chain longer than the
// registry, fails with core.ErrMigrationLoop.
func (m *Migrations) Upgrade(rec Record) (Record, error) {
	key, err := rec.Key()
	if err != nil {
		return nil, err
	}
	for applied := 0; ; applied++ {
		step, ok := m.steps[key]
		if !ok {
			return rec, nil
		}
		if applied >= len(m.steps) {
			return nil, fmt.Errorf("%w: chain from %s exceeds %d steps", core.ErrMigrationLoop, key, len(m.steps))
		}
		next, err := step(rec.clone())
		if err != nil {
			return nil, fmt.Errorf("migrate %s: %w", key, err)
		}
		nextKey, err := next.Key()
		if err != nil {
			return nil, fmt.Errorf("migrate %s: %w", key, err)
		}
		if nextKey.Type == key.Type && nextKey.Version <= key.Version {
			return nil, fmt.Errorf("%w: %s upgraded to %s", core.ErrMigrationLoop, key, nextKey)
		}
		rec, key = next, nextKey
	}
}

// transactV1ToV2 turns the single {value, target} pair into an itemization.
func transactV1ToV2(rec Record) (Record, error) {
	var (
		target *string
		memo   *string
		value  core.Money
	)
	if err := rec.Get("target", &target); err != nil {
		return nil, err
	}
	if err := rec.Get("memo", &memo); err != nil {
		return nil, err
	}
	if err := rec.Get("value", &value); err != nil {
		return nil, err
	}

	key := core.Unallocated
	if target != nil && *target != "" {
		key = *target
	}
	if err := rec.Set("itemizedAmounts", core.Itemization{key: value}); err != nil {
		return nil, err
	}
	m := ""
	if memo != nil {
		m = *memo
	}
	if err := rec.Set("memo", m); err != nil {
		return nil, err
	}
	delete(rec, "value")
	delete(rec, "target")
	return rec, rec.Set("version", 2)
}

// createTargetV1ToV2 drops the allocateFrom account, which no view uses.
func createTargetV1ToV2(rec Record) (Record, error) {
	delete(rec, "allocateFrom")
	return rec, rec.Set("version", 2)
}

// transferV1ToV2 keeps dated transfers as they are. Early transfers were
// written without a date and cannot be placed on the timeline, so they are
// rejected instead of being counted at every date.
func transferV1ToV2(rec Record) (Record, error) {
	if !rec.Has("date") {
		return nil, fmt.Errorf("%w: transfer recorded without a date", core.ErrInvalidDate)
	}
	return rec, rec.Set("version", 2)
}
