// Package memory provides an in-process transaction store, used for local
// development and tests. Aggregates are computed by the reporting functions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/reporting"
	"fintrack/internal/storage"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]core.Transaction
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{items: make(map[string]core.Transaction), now: time.Now}
}

func (s *Store) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	t.ID = uuid.NewString()
	t.Date = t.Date.UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.items[t.ID] = t
	return t, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sorted()
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) Update(_ context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	p.Apply(&t)
	t.UpdatedAt = s.timestamp()
	s.items[id] = t
	return t, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) MonthlyTotals(ctx context.Context) ([]core.MonthlyPoint, error) {
	all, _ := s.List(ctx)
	return reporting.MonthlySeries(all), nil
}

func (s *Store) CategoryExpenses(ctx context.Context) ([]core.CategoryAmount, error) {
	all, _ := s.List(ctx)
	return reporting.CategoryBreakdown(all), nil
}

func (s *Store) Totals(ctx context.Context) (core.Totals, error) {
	all, _ := s.List(ctx)
	return reporting.ComputeTotals(all), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// sorted orders by date desc, then creation desc, then id. Callers hold mu.
func (s *Store) sorted() []core.Transaction {
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

var _ storage.Store = (*Store)(nil)
