package google

import (
	"fintrack/internal/core"
	"fintrack/internal/reporting"
	ports "fintrack/internal/sheets"
)

var ledgerHeader = []any{"Date", "Description", "Category", "Type", "Amount", "ID", "Updated At"}

// ledgerRows renders one row per transaction below a header row.
// Amounts are numbers so the sheet can sum them.
func ledgerRows(snap ports.Snapshot) [][]any {
	rows := make([][]any, 0, len(snap.Transactions)+1)
	rows = append(rows, ledgerHeader)
	for _, t := range snap.Transactions {
		rows = append(rows, []any{
			t.Date.UTC().Format(core.DateLayout),
			t.Description,
			string(t.Category),
			string(t.Kind()),
			t.Amount.Float64(),
			t.ID,
			core.FormatTimestamp(t.UpdatedAt),
		})
	}
	return rows
}

// summaryRows renders the totals block, the monthly series and the
// category breakdown, separated by blank rows.
func summaryRows(snap ports.Snapshot) [][]any {
	s := snap.Summary
	rows := [][]any{
		{"Generated At", core.FormatTimestamp(snap.GeneratedAt)},
		{},
		{"Total Income", s.TotalIncome.Float64()},
		{"Total Expenses", s.TotalExpenses.Float64()},
		{"Balance", s.Balance.Float64()},
		{"Top Category", s.TopCategory},
		{},
		{"Month", "Income", "Expense", "Net"},
	}
	for _, p := range snap.Monthly {
		rows = append(rows, []any{
			p.Label(),
			p.Income.Float64(),
			p.Expense.Abs().Float64(),
			p.Income.Add(p.Expense).Float64(),
		})
	}
	rows = append(rows, []any{}, []any{"Category", "Expenses", "Share %"})
	for _, c := range snap.Categories {
		rows = append(rows, []any{
			string(c.Category),
			c.Amount.Float64(),
			reporting.Share(c.Amount, s.TotalExpenses),
		})
	}
	return rows
}
