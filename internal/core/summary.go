package core

import "fmt"

// NoCategory is reported as the top category when there are no expenses.
const NoCategory = "None"

// MonthlyPoint holds the income and expense of one calendar month.
// Expense is kept negative.
type MonthlyPoint struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
}

// Label formats the month as YYYY-MM.
func (p MonthlyPoint) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// CategoryAmount is the expense magnitude of one category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// Totals are global sums. Expenses is a magnitude.
type Totals struct {
	Income   Money
	Expenses Money
}

type Summary struct {
	TotalIncome       Money
	TotalExpenses     Money
	Balance           Money
	TopCategory       string
	TopCategoryAmount Money
}

func (s Summary) HasExpenses() bool { return s.TopCategory != NoCategory }
