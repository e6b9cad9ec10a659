package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	id     string
	action core.ChangeAction
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishTransactionChanged(_ context.Context, id string, action core.ChangeAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, recordedEvent{id, action})
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func ptr[T any](v T) *T { return &v }

func coffee() core.TransactionPatch {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return core.TransactionPatch{
		Amount:      ptr(core.NewMoney(-4250)),
		Description: ptr("Coffee"),
		Date:        &date,
		Category:    ptr(core.CategoryFood),
	}
}

func TestTransactionServiceLifecycle(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.NewStore(), pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, coffee())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, core.KindExpense, created.Kind())

	updated, err := svc.Update(ctx, created.ID, core.TransactionPatch{Category: ptr(core.CategoryShopping)})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryShopping, updated.Category)
	assert.Equal(t, "Coffee", updated.Description)

	require.NoError(t, svc.Delete(ctx, created.ID))

	assert.Equal(t, []recordedEvent{
		{created.ID, core.ActionCreated},
		{created.ID, core.ActionUpdated},
		{created.ID, core.ActionDeleted},
	}, pub.events)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestTransactionServiceValidation(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.NewStore(), pub)
	ctx := context.Background()

	p := coffee()
	p.Category = nil
	_, err := svc.Create(ctx, p)
	assert.ErrorIs(t, err, core.ErrMissingFields)

	p = coffee()
	p.Category = ptr(core.Category("Crypto"))
	_, err = svc.Create(ctx, p)
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	_, err = svc.Update(ctx, "any", core.TransactionPatch{Description: ptr("  ")})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	assert.Empty(t, pub.events, "failed operations must not publish")
}

func TestTransactionServiceNotFound(t *testing.T) {
	svc := NewTransactionService(memory.NewStore(), nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Update(ctx, "missing", core.TransactionPatch{Description: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "missing"), storage.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), storage.ErrNotFound)
}

func TestTransactionServicePublishFailureDoesNotFailRequest(t *testing.T) {
	svc := NewTransactionService(memory.NewStore(), &fakePublisher{err: errors.New("broker down")})

	created, err := svc.Create(context.Background(), coffee())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
