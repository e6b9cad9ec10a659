package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/reporting"
	"fintrack/internal/sheets"
)

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// Interval between periodic exports; they cover change events that were lost (default: 15m)
	Interval time.Duration

	// Timeout bounds a single export (default: 30s)
	Timeout time.Duration
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		Interval: 15 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

// TransactionLister is the read side of the store an export needs.
type TransactionLister interface {
	List(ctx context.Context) ([]core.Transaction, error)
}

// ExportProcessor writes snapshots of the whole ledger to a spreadsheet.
type ExportProcessor struct {
	source TransactionLister
	writer sheets.SnapshotWriter
	config ExportProcessorConfig
	now    func() time.Time

	// exportMu serializes exports so snapshots land in order
	exportMu   sync.Mutex
	lastExport time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(source TransactionLister, writer sheets.SnapshotWriter, config ExportProcessorConfig) *ExportProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultExportProcessorConfig().Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultExportProcessorConfig().Timeout
	}
	return &ExportProcessor{
		source: source,
		writer: writer,
		config: config,
		now:    time.Now,
	}
}

// Export builds a snapshot from the current ledger and writes it.
func (p *ExportProcessor) Export(ctx context.Context) error {
	p.exportMu.Lock()
	defer p.exportMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	// taken before the read so every change committed earlier is covered
	generated := p.now().UTC()
	txs, err := p.source.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	view := reporting.Snapshot(txs)
	snap := sheets.Snapshot{
		GeneratedAt:  generated,
		Transactions: txs,
		Monthly:      view.Monthly,
		Categories:   view.Categories,
		Summary:      view.Summary,
	}
	if err := p.writer.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	p.lastExport = snap.GeneratedAt

	slog.InfoContext(ctx, "Exported snapshot",
		"transactions", len(txs),
		"months", len(view.Monthly),
		"balance_cents", view.Summary.Balance.Cents)
	return nil
}

// LastExport returns when the last successful export read the ledger, zero if none.
func (p *ExportProcessor) LastExport() time.Time {
	p.exportMu.Lock()
	defer p.exportMu.Unlock()
	return p.lastExport
}

// Start begins the periodic export loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Export processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

func (p *ExportProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Export immediately on startup
	p.exportLogged(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.exportLogged(ctx)
		}
	}
}

func (p *ExportProcessor) exportLogged(ctx context.Context) {
	if err := p.Export(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic export failed", "error", err)
	}
}
