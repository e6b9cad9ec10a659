package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// Snapshot is everything written by one export: the full ledger and the
	// aggregate views derived from it.
	Snapshot struct {
		GeneratedAt  time.Time
		Transactions []core.Transaction
		Monthly      []core.MonthlyPoint
		Categories   []core.CategoryAmount
		Summary      core.Summary
	}

	SnapshotWriter interface {
		// WriteSnapshot replaces the previously exported content.
		WriteSnapshot(ctx context.Context, snap Snapshot) error
	}
)
