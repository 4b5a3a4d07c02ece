// Package sheets lays budget snapshots out as tables and defines the
// outbound ports that publish them.
package sheets

import (
	"context"
	"errors"

	"budgie/internal/services"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter publishes a full snapshot, replacing what was written before.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, snap *services.Snapshot) error
	}
)

type multiWriter []SnapshotWriter

// MultiWriter writes every snapshot to each writer in turn. A failing
// writer does not stop the others; their errors are joined.
func MultiWriter(writers ...SnapshotWriter) SnapshotWriter {
	return multiWriter(writers)
}

func (m multiWriter) WriteSnapshot(ctx context.Context, snap *services.Snapshot) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
