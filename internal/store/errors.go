package store

import "fmt"

// RecordError reports a stored record that could not be decoded.
type RecordError struct {
	Position int // 1-based position in the log
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("event record %d: %v", e.Position, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
