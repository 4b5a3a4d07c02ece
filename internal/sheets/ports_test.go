package sheets

import (
	"context"
	"errors"
	"testing"

	"budgie/internal/services"
)

type recordingWriter struct {
	calls int
	err   error
}

func (r *recordingWriter) WriteSnapshot(context.Context, *services.Snapshot) error {
	r.calls++
	return r.err
}

func TestMultiWriter(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingWriter{err: boom}
	ok := &recordingWriter{}

	err := MultiWriter(failing, ok).WriteSnapshot(context.Background(), &services.Snapshot{})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("calls = %d, %d; want every writer called once", failing.calls, ok.calls)
	}

	if err := MultiWriter(ok).WriteSnapshot(context.Background(), &services.Snapshot{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
