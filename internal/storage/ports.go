// Package storage defines the transaction store ports and the SQLite implementation.
package storage

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound is returned when an identifier does not resolve to a transaction.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore persists transactions. Implementations assign the ID and
// the CreatedAt/UpdatedAt timestamps.
type TransactionStore interface {
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, id string) (core.Transaction, error)
	// List returns every transaction, most recent date first.
	List(ctx context.Context) ([]core.Transaction, error)
	Recent(ctx context.Context, limit int) ([]core.Transaction, error)
	Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// Aggregator computes the grouped views straight from the store.
type Aggregator interface {
	MonthlyTotals(ctx context.Context) ([]core.MonthlyPoint, error)
	CategoryExpenses(ctx context.Context) ([]core.CategoryAmount, error)
	Totals(ctx context.Context) (core.Totals, error)
}

type Store interface {
	TransactionStore
	Aggregator
	Ping(ctx context.Context) error
	Close() error
}
