package reporting

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource answers every query from an in-memory slice.
type sliceSource struct {
	txs        []core.Transaction
	failTotals error
	gotLimit   int
}

func (s *sliceSource) MonthlyTotals(context.Context) ([]core.MonthlyPoint, error) {
	return MonthlySeries(s.txs), nil
}

func (s *sliceSource) CategoryExpenses(context.Context) ([]core.CategoryAmount, error) {
	return CategoryBreakdown(s.txs), nil
}

func (s *sliceSource) Totals(context.Context) (core.Totals, error) {
	if s.failTotals != nil {
		return core.Totals{}, s.failTotals
	}
	return ComputeTotals(s.txs), nil
}

func (s *sliceSource) Recent(_ context.Context, limit int) ([]core.Transaction, error) {
	s.gotLimit = limit
	if len(s.txs) > limit {
		return s.txs[:limit], nil
	}
	return s.txs, nil
}

func TestServiceDashboard(t *testing.T) {
	src := &sliceSource{txs: scenario()}
	d, err := NewService(src).Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RecentLimit, src.gotLimit)
	assert.Len(t, d.Monthly, 1)
	assert.Len(t, d.Categories, 2)
	assert.Len(t, d.Recent, 3)
	assert.Equal(t, int64(192000), d.Summary.Balance.Cents)
	assert.Equal(t, "Food & Dining", d.Summary.TopCategory)
}

func TestServiceDashboardEmptySlices(t *testing.T) {
	d, err := NewService(&sliceSource{}).Dashboard(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, d.Monthly)
	assert.NotNil(t, d.Categories)
	assert.NotNil(t, d.Recent)
	assert.Equal(t, core.NoCategory, d.Summary.TopCategory)
}

func TestServiceDashboardFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := NewService(&sliceSource{txs: scenario(), failTotals: boom}).Dashboard(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
