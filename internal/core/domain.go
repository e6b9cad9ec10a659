package core

import (
	"strings"
	"time"
)

const (
	CategoryFood          Category = "Food & Dining"
	CategoryTransport     Category = "Transportation"
	CategoryHousing       Category = "Housing"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategoryHealth        Category = "Health & Medical"
	CategoryPersonalCare  Category = "Personal Care"
	CategoryEducation     Category = "Education"
	CategoryTravel        Category = "Travel"
	CategoryGifts         Category = "Gifts & Donations"
	CategoryInvestments   Category = "Investments"
	CategoryIncome        Category = "Income"
	CategoryOther         Category = "Other"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// MaxDescriptionLength is counted in characters, not bytes.
const MaxDescriptionLength = 200

type (
	Category string

	// Kind is derived from the sign of an amount and never stored.
	Kind string

	Transaction struct {
		ID          string
		Amount      Money // positive = income, negative = expense
		Description string
		Date        time.Time
		Category    Category
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionPatch carries the fields of a create or partial update.
	// A nil field is absent.
	TransactionPatch struct {
		Amount      *Money
		Description *string
		Date        *time.Time
		Category    *Category
	}
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryShopping,
	CategoryHealth,
	CategoryPersonalCare,
	CategoryEducation,
	CategoryTravel,
	CategoryGifts,
	CategoryInvestments,
	CategoryIncome,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory matches s exactly after trimming surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	return c, nil
}

// Kind reports income for positive amounts and expense for negative ones.
func (t Transaction) Kind() Kind {
	if t.Amount.IsExpense() {
		return KindExpense
	}
	return KindIncome
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if !t.Category.Valid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	return nil
}

// ValidateDescription expects an already trimmed description.
func ValidateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if len([]rune(s)) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

// Complete reports whether every field required to create a transaction is present.
func (p TransactionPatch) Complete() bool {
	return p.Amount != nil && !p.Amount.IsZero() &&
		p.Description != nil && strings.TrimSpace(*p.Description) != "" &&
		p.Date != nil && !p.Date.IsZero() &&
		p.Category != nil && *p.Category != ""
}

func (p TransactionPatch) Empty() bool {
	return p.Amount == nil && p.Description == nil && p.Date == nil && p.Category == nil
}

// Validate checks the fields that are present.
func (p TransactionPatch) Validate() error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return &ValidationError{Field: "amount", Err: err}
		}
	}
	if p.Description != nil {
		if err := ValidateDescription(strings.TrimSpace(*p.Description)); err != nil {
			return err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if p.Category != nil && !p.Category.Valid() {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	return nil
}

// Apply copies the present fields onto t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
}

// NewTransaction builds an unsaved transaction from a complete patch.
func NewTransaction(p TransactionPatch) (Transaction, error) {
	if !p.Complete() {
		return Transaction{}, ErrMissingFields
	}
	var t Transaction
	p.Apply(&t)
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
