package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/log"
	"bilancio/internal/state"
)

// Source is the shared state the worker reads from.
type Source interface {
	Load(ctx context.Context) error
	Snapshot() state.Snapshot
}

// Exporter writes the reports of one year.
type Exporter interface {
	Export(ctx context.Context, snap state.Snapshot, year int) error
}

// ExportWorker keeps the spreadsheet in line with the stored state. It
// exports on every state-change notification and periodically as a safety
// net for lost messages.
type ExportWorker struct {
	source   Source
	exporter Exporter
	now      func() time.Time
	logger   *log.Logger

	mu sync.Mutex
	// lastRead is when the last successful export read the state; every
	// change published before it is already in the spreadsheet.
	lastRead     time.Time
	lastRevision uint64
	exports      int
}

func NewExportWorker(source Source, exporter Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleStateChanged processes one notification. Changes already covered by
// a previous export are acknowledged without work.
func (w *ExportWorker) HandleStateChanged(ctx context.Context, msg *amqp.StateChangedMessage) error {
	w.mu.Lock()
	covered := !w.lastRead.IsZero() && msg.Timestamp.Before(w.lastRead)
	w.mu.Unlock()

	if covered {
		w.logger.DebugContext(ctx, "Change already exported, skipping",
			log.FieldRevision, msg.Revision, log.FieldOperation, msg.Operation)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing state change",
		log.FieldRevision, msg.Revision,
		log.FieldOperation, msg.Operation,
		"collections", msg.Collections)

	if err := w.ExportNow(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	w.lastRevision = msg.Revision
	w.mu.Unlock()
	return nil
}

// ExportNow reloads the state and exports the current year.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	started := w.now()
	if err := w.source.Load(ctx); err != nil {
		return fmt.Errorf("reload state: %w", err)
	}
	snap := w.source.Snapshot()

	if err := w.exporter.Export(ctx, snap, started.Year()); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	w.mu.Lock()
	if started.After(w.lastRead) {
		w.lastRead = started
	}
	w.exports++
	w.mu.Unlock()
	return nil
}

// Run exports once at startup and then every interval until ctx is done.
// Failures are logged; the next tick retries.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	if err := w.ExportNow(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup export failed", log.FieldError, err)
	} else {
		w.logger.InfoContext(ctx, "Startup export completed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Stopping periodic export")
			return
		case <-ticker.C:
			if err := w.ExportNow(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", log.FieldError, err)
			}
		}
	}
}

// Status reports how many exports succeeded and the last handled revision.
func (w *ExportWorker) Status() (exports int, lastRevision uint64, lastRead time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exports, w.lastRevision, w.lastRead
}
