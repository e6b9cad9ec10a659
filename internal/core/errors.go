package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields is returned when a create lacks amount, description, date or category.
	ErrMissingFields = errors.New("missing required fields")

	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountTooLarge     = errors.New("amount is too large")
	ErrAmountPrecision    = errors.New("amount has more than two decimal places")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidCategory    = errors.New("invalid category")
)

// ValidationError ties a validation failure to the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is caused by bad input rather than a failing dependency.
func IsValidation(err error) bool {
	if errors.Is(err, ErrMissingFields) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
