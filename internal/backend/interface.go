// Package backend wires an event store, the optional AMQP publisher and the
// budget service together from configuration.
package backend

import (
	"context"
	"slices"

	"budgie/internal/amqp"
	"budgie/internal/services"
	"budgie/internal/storage"
	"budgie/internal/store"
)

// CleanupFunc releases what CreateBackend opened.
type CleanupFunc func() error

// BackendResult is the wired service plus the pieces some binaries use
// directly.
type BackendResult struct {
	Service *services.BudgetService
	Store   store.Store
	// SQL is set for the sqlite and postgres backends; it also serves as
	// the export cursor.
	SQL *storage.EventStore
	// AMQP is nil when publishing is disabled or the broker was unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects one event store. AMQP is optional for every store.
type Config struct {
	Type BackendType

	EventFile    string
	SQLiteDBPath string
	PostgresDSN  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(BackendTypes, bt)
}
