package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgie/internal/amqp"
	"budgie/internal/core"
	applog "budgie/internal/log"
	"budgie/internal/services"
	"budgie/internal/sheets"
)

// DefaultExportName keys the export cursor for the sheets writer.
const DefaultExportName = "sheets"

// ExportCursor remembers how far into the log the last export reached.
// storage.EventStore implements it.
type ExportCursor interface {
	LastSeq(ctx context.Context) (int64, error)
	LastExported(ctx context.Context, name string) (int64, error)
	MarkExported(ctx context.Context, name string, seq int64) error
}

// SyncWorker writes budget snapshots to a spreadsheet when events are
// appended and whenever the reference date moves on.
type SyncWorker struct {
	service *services.BudgetService
	writer  sheets.SnapshotWriter
	cursor  ExportCursor
	today   func() (core.Date, error)
	name    string

	mu       sync.Mutex
	lastAsOf core.Date
}

// NewSyncWorker creates a worker. cursor may be nil, in which case every
// request exports.
func NewSyncWorker(service *services.BudgetService, writer sheets.SnapshotWriter, cursor ExportCursor, today func() (core.Date, error)) *SyncWorker {
	if today == nil {
		today = func() (core.Date, error) { return core.Today(), nil }
	}
	return &SyncWorker{
		service: service,
		writer:  writer,
		cursor:  cursor,
		today:   today,
		name:    DefaultExportName,
	}
}

// HandleEventAppended processes a single event appended message from AMQP.
func (w *SyncWorker) HandleEventAppended(ctx context.Context, msg *amqp.EventAppendedMessage) error {
	slog.InfoContext(ctx, "Processing event appended message",
		"id", msg.ID,
		"event_type", msg.EventType,
		"version", msg.Version)

	if _, err := w.Export(ctx); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	return nil
}

// StartupSyncCheck exports once at startup to recover from missed messages
// or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	exported, err := w.Export(ctx)
	if err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "exported", exported)
	return nil
}

// Export writes a snapshot as of today. It skips the write when the cursor
// shows no new events and the date has not changed since the last export.
func (w *SyncWorker) Export(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	asOf, err := w.today()
	if err != nil {
		return false, fmt.Errorf("reference date: %w", err)
	}

	var seq int64
	if w.cursor != nil {
		seq, err = w.cursor.LastSeq(ctx)
		if err != nil {
			return false, fmt.Errorf("read log position: %w", err)
		}
		last, err := w.cursor.LastExported(ctx, w.name)
		if err != nil {
			return false, fmt.Errorf("read export cursor: %w", err)
		}
		if seq <= last && asOf.Equal(w.lastAsOf) {
			slog.DebugContext(ctx, "Snapshot up to date, skipping export", "seq", seq)
			return false, nil
		}
	}

	started := time.Now()
	snap, err := w.service.Snapshot(ctx, asOf)
	if err != nil {
		return false, fmt.Errorf("build snapshot: %w", err)
	}
	if err := w.writer.WriteSnapshot(ctx, snap); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}
	w.lastAsOf = asOf

	if w.cursor != nil {
		if err := w.cursor.MarkExported(ctx, w.name, seq); err != nil {
			// The write succeeded; the next export simply repeats it.
			slog.ErrorContext(ctx, "Failed to record export cursor", "seq", seq, "error", err)
		}
	}

	fields := applog.NewFields().
		WithAsOf(asOf.String()).
		WithOperation(applog.OpExport).
		WithDuration(time.Since(started))
	fields[applog.FieldEventCount] = snap.EventCount
	slog.InfoContext(ctx, "Exported snapshot", append(fields.ToSlice(), "seq", seq)...)
	return true, nil
}
