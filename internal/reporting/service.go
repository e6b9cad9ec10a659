package reporting

import (
	"context"
	"fmt"

	"fintrack/internal/core"

	"golang.org/x/sync/errgroup"
)

// RecentLimit is the number of transactions shown on the dashboard.
const RecentLimit = 5

// Source is the slice of the transaction store the dashboard reads.
type Source interface {
	MonthlyTotals(ctx context.Context) ([]core.MonthlyPoint, error)
	CategoryExpenses(ctx context.Context) ([]core.CategoryAmount, error)
	Totals(ctx context.Context) (core.Totals, error)
	Recent(ctx context.Context, limit int) ([]core.Transaction, error)
}

type Dashboard struct {
	Monthly    []core.MonthlyPoint
	Categories []core.CategoryAmount
	Summary    core.Summary
	Recent     []core.Transaction
}

// Service composes the dashboard from the store on every call.
type Service struct {
	source Source
}

func NewService(source Source) *Service {
	return &Service{source: source}
}

// Dashboard loads every view concurrently. Any failure fails the whole dashboard.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d      Dashboard
		totals core.Totals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.source.MonthlyTotals(gctx)
		if err != nil {
			return fmt.Errorf("monthly series: %w", err)
		}
		d.Monthly = m
		return nil
	})
	g.Go(func() error {
		c, err := s.source.CategoryExpenses(gctx)
		if err != nil {
			return fmt.Errorf("category breakdown: %w", err)
		}
		d.Categories = c
		return nil
	})
	g.Go(func() error {
		t, err := s.source.Totals(gctx)
		if err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		totals = t
		return nil
	})
	g.Go(func() error {
		r, err := s.source.Recent(gctx, RecentLimit)
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		d.Recent = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if d.Monthly == nil {
		d.Monthly = []core.MonthlyPoint{}
	}
	if d.Categories == nil {
		d.Categories = []core.CategoryAmount{}
	}
	if d.Recent == nil {
		d.Recent = []core.Transaction{}
	}
	d.Summary = Summarize(totals, d.Categories)
	return d, nil
}

// Snapshot computes every view from one list of transactions ordered by
// date descending, as storage List returns them.
func Snapshot(txs []core.Transaction) Dashboard {
	cats := CategoryBreakdown(txs)
	recent := txs
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	return Dashboard{
		Monthly:    MonthlySeries(txs),
		Categories: cats,
		Summary:    Summarize(ComputeTotals(txs), cats),
		Recent:     recent,
	}
}
