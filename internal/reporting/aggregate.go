// Package reporting derives the dashboard views from transactions: the
// monthly income/expense series, the expense breakdown by category and the
// summary totals.
package reporting

import (
	"sort"

	"fintrack/internal/core"
)

// MonthlySeries groups transactions by UTC calendar month, ascending.
func MonthlySeries(txs []core.Transaction) []core.MonthlyPoint {
	type key struct{ year, month int }
	byMonth := make(map[key]*core.MonthlyPoint)
	for _, t := range txs {
		d := t.Date.UTC()
		k := key{d.Year(), int(d.Month())}
		p, ok := byMonth[k]
		if !ok {
			p = &core.MonthlyPoint{Year: k.year, Month: k.month}
			byMonth[k] = p
		}
		switch {
		case t.Amount.IsIncome():
			p.Income = p.Income.Add(t.Amount)
		case t.Amount.IsExpense():
			p.Expense = p.Expense.Add(t.Amount)
		}
	}

	out := make([]core.MonthlyPoint, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// CategoryBreakdown sums expense magnitudes per category. Income is ignored.
// Ordered by amount descending, then category name.
func CategoryBreakdown(txs []core.Transaction) []core.CategoryAmount {
	sums := make(map[core.Category]core.Money)
	for _, t := range txs {
		if !t.Amount.IsExpense() {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount.Abs())
	}

	out := make([]core.CategoryAmount, 0, len(sums))
	for c, m := range sums {
		out = append(out, core.CategoryAmount{Category: c, Amount: m})
	}
	SortCategories(out)
	return out
}

// SortCategories orders by amount descending, then category name.
func SortCategories(cats []core.CategoryAmount) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Amount.Cents != cats[j].Amount.Cents {
			return cats[i].Amount.Cents > cats[j].Amount.Cents
		}
		return cats[i].Category < cats[j].Category
	})
}

func ComputeTotals(txs []core.Transaction) core.Totals {
	var t core.Totals
	for _, tx := range txs {
		switch {
		case tx.Amount.IsIncome():
			t.Income = t.Income.Add(tx.Amount)
		case tx.Amount.IsExpense():
			t.Expenses = t.Expenses.Add(tx.Amount.Abs())
		}
	}
	return t
}

// Summarize combines the totals with the category breakdown. The top
// category is the largest expense; ties go to the lexically smaller name.
func Summarize(totals core.Totals, cats []core.CategoryAmount) core.Summary {
	s := core.Summary{
		TotalIncome:   totals.Income,
		TotalExpenses: totals.Expenses,
		Balance:       totals.Income.Sub(totals.Expenses),
		TopCategory:   core.NoCategory,
	}
	var top *core.CategoryAmount
	for i := range cats {
		c := &cats[i]
		if c.Amount.Cents <= 0 {
			continue
		}
		if top == nil || c.Amount.Cents > top.Amount.Cents ||
			(c.Amount.Cents == top.Amount.Cents && c.Category < top.Category) {
			top = c
		}
	}
	if top != nil {
		s.TopCategory = string(top.Category)
		s.TopCategoryAmount = top.Amount
	}
	return s
}

// Share returns part as a whole percentage of total, 0 when total is zero.
func Share(part, total core.Money) int {
	if total.Cents == 0 {
		return 0
	}
	return int((part.Cents*100 + total.Cents/2) / total.Cents)
}
