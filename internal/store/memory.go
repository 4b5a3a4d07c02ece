package store

import (
	"context"
	"sync"

	"budgie/internal/event"
)

// Memory keeps encoded records in process. It is used by tests and by the
// memory backend.
type Memory struct {
	mu      sync.RWMutex
	records [][]byte
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryFromRecords seeds the log with already encoded records, which may
// be of a legacy version.
func NewMemoryFromRecords(records ...[]byte) *Memory {
	m := &Memory{records: make([][]byte, 0, len(records))}
	for _, r := range records {
		m.records = append(m.records, append([]byte(nil), r...))
	}
	return m
}

func (m *Memory) Append(ctx context.Context, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(e)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records = append(m.records, b)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Replay(ctx context.Context, fn func(event.Event) error) error {
	m.mu.RLock()
	records := m.records[:len(m.records):len(m.records)]
	m.mu.RUnlock()

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := Decode(r)
		if err != nil {
			return &RecordError{Position: i + 1, Err: err}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) Close() error { return nil }
