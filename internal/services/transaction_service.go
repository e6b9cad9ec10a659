package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher announces transaction changes to other processes.
type EventPublisher interface {
	PublishTransactionChanged(ctx context.Context, id string, action core.ChangeAction) error
	Close() error
}

// TransactionService orchestrates transaction operations across the store and AMQP.
type TransactionService struct {
	store     storage.TransactionStore
	publisher EventPublisher
}

// NewTransactionService accepts a nil publisher; events are then skipped.
func NewTransactionService(store storage.TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// Create requires amount, description, date and category.
func (s *TransactionService) Create(ctx context.Context, p core.TransactionPatch) (core.Transaction, error) {
	tx, err := core.NewTransaction(p)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", saved.ID,
		"kind", saved.Kind(),
		"category", saved.Category)

	s.publish(ctx, saved.ID, core.ActionCreated)
	return saved, nil
}

// Update applies the fields present in p. Last write wins.
func (s *TransactionService) Update(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)

	s.publish(ctx, id, core.ActionUpdated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	s.publish(ctx, id, core.ActionDeleted)
	return nil
}

// publish never fails the caller: the change is already stored.
func (s *TransactionService) publish(ctx context.Context, id string, action core.ChangeAction) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping change event", "id", id)
		return
	}
	if err := s.publisher.PublishTransactionChanged(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"id", id,
			"action", action,
			"error", err)
	}
}

// Close releases the publisher. The store is owned by the backend.
func (s *TransactionService) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
