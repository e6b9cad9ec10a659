package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
)

// Exporter writes a fresh snapshot of the ledger.
type Exporter interface {
	Export(ctx context.Context) error
	LastExport() time.Time
}

// EventSource delivers transaction change events until ctx is cancelled.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// ExportWorker turns transaction change events into spreadsheet exports.
// A failed export is requeued by the consumer, so the worker waits out an
// exponential backoff before handing the error back. HandleEvent is called
// from a single consumer goroutine.
type ExportWorker struct {
	exporter Exporter
	backoff  func(attempt int) time.Duration
	wait     func(ctx context.Context, d time.Duration) error
	failures int
}

func NewExportWorker(exporter Exporter) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		backoff:  amqp.ExponentialBackoff,
		wait:     sleepContext,
	}
}

// HandleEvent exports after a change. Events older than the last export are
// already reflected in it and are skipped, which collapses bursts.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if last := w.exporter.LastExport(); !last.IsZero() && !ev.Timestamp.IsZero() && ev.Timestamp.Before(last) {
		slog.DebugContext(ctx, "Event already covered by last export",
			"id", ev.ID,
			"action", ev.Action,
			"event_time", ev.Timestamp,
			"last_export", last)
		return nil
	}

	slog.InfoContext(ctx, "Processing transaction event",
		"id", ev.ID,
		"action", ev.Action)

	if err := w.exporter.Export(ctx); err != nil {
		err = fmt.Errorf("export after %s of %s: %w", ev.Action, ev.ID, err)
		delay := w.backoff(w.failures)
		w.failures++
		slog.WarnContext(ctx, "Export failed, backing off before requeue",
			"error", err,
			"failures", w.failures,
			"backoff", delay)
		if waitErr := w.wait(ctx, delay); waitErr != nil {
			slog.DebugContext(ctx, "Backoff interrupted", "error", waitErr)
		}
		return err
	}
	w.failures = 0
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, source EventSource) error {
	return source.ConsumeTransactionEvents(ctx, w.HandleEvent)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
