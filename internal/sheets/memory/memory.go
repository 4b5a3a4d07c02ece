package memory

import (
	"context"
	"errors"
	"sync"

	"budgie/internal/services"
	"budgie/internal/sheets"
)

var _ sheets.SnapshotWriter = (*Store)(nil)

// Store keeps the last written tables in memory.
type Store struct {
	mu     sync.Mutex
	tables map[string]sheets.Table
	writes int
	last   *services.Snapshot
}

func New() *Store {
	return &Store{tables: make(map[string]sheets.Table)}
}

// WriteSnapshot replaces every table with the snapshot's layout.
func (s *Store) WriteSnapshot(_ context.Context, snap *services.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tables)
	for _, t := range sheets.Tables(snap) {
		s.tables[t.Name] = t
	}
	s.writes++
	s.last = snap
	return nil
}

// Table returns the last written table with that name.
func (s *Store) Table(name string) (sheets.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	return t, ok
}

// Writes returns how many snapshots were written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Last returns the most recent snapshot, or nil.
func (s *Store) Last() *services.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
