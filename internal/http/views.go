package http

import (
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/reporting"
)

// View models handed to templates. Every number is formatted here so the
// templates only print strings.

type page struct {
	Title  string
	Active string // "dashboard" or "transactions"
}

type transactionView struct {
	ID            string
	Date          string // Jan 02, 2006
	Description   string
	Category      string
	CategoryClass string
	Amount        string
	Kind          string
}

type monthBar struct {
	Label         string
	Income        string
	Expense       string
	IncomeHeight  int // percent of the largest bar
	ExpenseHeight int
}

type categoryBar struct {
	Name   string
	Amount string
	Class  string
	Share  int // percent of total expenses
	Width  int // percent of the largest category
}

type dashboardView struct {
	page
	Balance         string
	BalanceNegative bool
	Income          string
	Expenses        string
	HasExpenses     bool
	TopCategory     string
	TopCategoryNote string
	Months          []monthBar
	Categories      []categoryBar
	Recent          []transactionView
}

type transactionsView struct {
	page
	Transactions []transactionView
}

type formView struct {
	page
	Editing    bool
	Action     string
	Values     formValues
	Errors     fieldErrors
	Error      string
	Categories []string
}

type deleteView struct {
	page
	Transaction transactionView
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:            t.ID,
		Date:          t.Date.UTC().Format("Jan 02, 2006"),
		Description:   t.Description,
		Category:      t.Category.String(),
		CategoryClass: categoryClass(t.Category),
		Amount:        formatCurrency(t.Amount),
		Kind:          string(t.Kind()),
	}
}

func newTransactionViews(txs []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, newTransactionView(t))
	}
	return views
}

// categoryClass gives every category a stable colour class, cat-0 to cat-13.
func categoryClass(c core.Category) string {
	for i, known := range core.Categories {
		if c == known {
			return "cat-" + strconv.Itoa(i)
		}
	}
	return "cat-" + strconv.Itoa(len(core.Categories)-1)
}

func newDashboardView(d reporting.Dashboard) dashboardView {
	s := d.Summary
	v := dashboardView{
		page:            page{Title: "Dashboard", Active: "dashboard"},
		Balance:         formatCurrency(s.Balance),
		BalanceNegative: s.Balance.IsExpense(),
		Income:          formatCurrency(s.TotalIncome),
		Expenses:        formatCurrency(s.TotalExpenses),
		HasExpenses:     s.HasExpenses(),
		TopCategory:     "No expenses",
		TopCategoryNote: "No expense data available",
		Recent:          newTransactionViews(d.Recent),
	}
	if s.HasExpenses() {
		v.TopCategory = s.TopCategory
		v.TopCategoryNote = formatCurrency(s.TopCategoryAmount)
	}

	var maxMonth int64
	for _, m := range d.Monthly {
		maxMonth = max(maxMonth, m.Income.Cents, m.Expense.Abs().Cents)
	}
	for _, m := range d.Monthly {
		v.Months = append(v.Months, monthBar{
			Label:         m.Label(),
			Income:        formatCurrency(m.Income),
			Expense:       formatCurrency(m.Expense.Abs()),
			IncomeHeight:  barPercent(m.Income.Cents, maxMonth),
			ExpenseHeight: barPercent(m.Expense.Abs().Cents, maxMonth),
		})
	}

	var maxCat int64
	if len(d.Categories) > 0 {
		maxCat = d.Categories[0].Amount.Cents
	}
	for _, c := range d.Categories {
		v.Categories = append(v.Categories, categoryBar{
			Name:   c.Category.String(),
			Amount: formatCurrency(c.Amount),
			Class:  categoryClass(c.Category),
			Share:  reporting.Share(c.Amount, s.TotalExpenses),
			Width:  barPercent(c.Amount.Cents, maxCat),
		})
	}
	return v
}

// barPercent scales v against top, rounded, with non-zero values kept visible.
func barPercent(v, top int64) int {
	if top <= 0 || v <= 0 {
		return 0
	}
	p := int((v*100 + top/2) / top)
	if p < 2 {
		p = 2
	}
	if p > 100 {
		p = 100
	}
	return p
}

func categoryNames() []string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = c.String()
	}
	return names
}
