package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LastExported returns the seq recorded by the last successful export with
// that name, or 0 if it never ran.
func (s *EventStore) LastExported(ctx context.Context, name string) (int64, error) {
	q := fmt.Sprintf("SELECT last_seq FROM exports WHERE name = %s", s.dialect.placeholder(1))
	var seq int64
	err := s.db.QueryRowContext(ctx, q, name).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read export cursor %q: %w", name, err)
	}
	return seq, nil
}

// MarkExported records that an export covered the log up to seq.
func (s *EventStore) MarkExported(ctx context.Context, name string, seq int64) error {
	q := fmt.Sprintf(`INSERT INTO exports (name, last_seq, exported_at) VALUES (%s, %s, CURRENT_TIMESTAMP)
ON CONFLICT (name) DO UPDATE SET last_seq = excluded.last_seq, exported_at = excluded.exported_at`,
		s.dialect.placeholder(1), s.dialect.placeholder(2))
	if _, err := s.db.ExecContext(ctx, q, name, seq); err != nil {
		return fmt.Errorf("mark export %q: %w", name, err)
	}
	return nil
}
