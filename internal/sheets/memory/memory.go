// Package memory keeps exported snapshots in process. The worker uses it as
// a dry-run target when no spreadsheet is configured.
package memory

import (
	"context"
	"log/slog"
	"sync"

	ports "fintrack/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	last  ports.Snapshot
	count int
}

func New() *Store {
	return &Store{}
}

// WriteSnapshot replaces the held snapshot.
func (s *Store) WriteSnapshot(ctx context.Context, snap ports.Snapshot) error {
	s.mu.Lock()
	s.last = snap
	s.count++
	n := s.count
	s.mu.Unlock()

	slog.InfoContext(ctx, "Snapshot kept in memory",
		"transactions", len(snap.Transactions),
		"writes", n)
	return nil
}

// Last returns the most recent snapshot and how many were written.
func (s *Store) Last() (ports.Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.count
}

var _ ports.SnapshotWriter = (*Store)(nil)
