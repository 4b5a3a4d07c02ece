// Package storage persists the event log in SQL databases.
//
// SQLite (modernc.org/sqlite, no cgo) and PostgreSQL (lib/pq) share one
// schema, managed by embedded golang-migrate migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"budgie/internal/event"
	"budgie/internal/store"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// EventStore is a store.Store backed by the events table.
type EventStore struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex // single writer per process

	insertSQL string
}

var _ store.Store = (*EventStore)(nil)

// NewSQLiteStore opens (creating if needed) the database file and migrates it.
func NewSQLiteStore(dbPath string) (*EventStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewPostgresStore connects with a lib/pq DSN and migrates the schema.
func NewPostgresStore(dsn string) (*EventStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN is required")
	}
	return open(Postgres, dsn)
}

func open(d Dialect, dsn string) (*EventStore, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, store.Unavailable("open "+string(d)+" database", err)
	}
	if d == SQLite {
		// One connection keeps appends serialized and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, store.Unavailable("ping database", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &EventStore{
		db:      db,
		dialect: d,
		insertSQL: fmt.Sprintf("INSERT INTO events (type, version, body) VALUES (%s, %s, %s)",
			d.placeholder(1), d.placeholder(2), d.placeholder(3)),
	}, nil
}

func (s *EventStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append implements store.Store.
func (s *EventStore) Append(ctx context.Context, e event.Event) error {
	body, err := store.Encode(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, s.insertSQL, string(e.Type()), e.Version(), string(body)); err != nil {
		return store.Unavailable("insert event", err)
	}

	slog.DebugContext(ctx, "Event appended",
		"dialect", s.dialect,
		"event_type", e.Type(),
		"version", e.Version())
	return nil
}

// Replay implements store.Store, reading events in seq order.
func (s *EventStore) Replay(ctx context.Context, fn func(event.Event) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT seq, body FROM events ORDER BY seq")
	if err != nil {
		return store.Unavailable("query events", err)
	}
	defer rows.Close()

	position := 0
	for rows.Next() {
		position++
		var (
			seq  int64
			body string
		)
		if err := rows.Scan(&seq, &body); err != nil {
			return store.Unavailable("scan event", err)
		}
		e, err := store.Decode([]byte(body))
		if err != nil {
			return &store.RecordError{Position: position, Err: fmt.Errorf("seq %d: %w", seq, err)}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return store.Unavailable("iterate events", err)
	}
	return nil
}

// LastSeq returns the highest sequence number, 0 for an empty log.
func (s *EventStore) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM events").Scan(&seq); err != nil {
		return 0, store.Unavailable("read last seq", err)
	}
	return seq.Int64, nil
}

// AppendRaw stores an already encoded record as is. It exists to import
// logs written by other tools, which may hold legacy versions.
func (s *EventStore) AppendRaw(ctx context.Context, record []byte) error {
	rec, err := event.ParseRecord(record)
	if err != nil {
		return err
	}
	key, err := rec.Key()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, s.insertSQL, string(key.Type), key.Version, string(record)); err != nil {
		return store.Unavailable("insert raw event", err)
	}
	return nil
}
