// Package http provides the HTTP server, the JSON API and the HTML pages.
//
// This file turns request bodies into transaction patches. The JSON API and
// the HTML form share the patch type but not the rules: the API takes signed
// amounts and any supported date layout, the form takes a positive amount
// plus a type selector.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("invalid request body")

// transactionRequest is the JSON body of create and update calls. Unknown
// fields, including the legacy "type", are ignored.
type transactionRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Description *string         `json:"description"`
	Date        *string         `json:"date"`
	Category    *string         `json:"category"`
}

// decodeTransactionJSON reads a transaction patch from a JSON body. Empty
// values are kept as zero values so that create reports them as missing and
// update reports them as invalid.
func decodeTransactionJSON(w http.ResponseWriter, r *http.Request) (core.TransactionPatch, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.TransactionPatch{}, err
		}
		return core.TransactionPatch{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return req.patch()
}

func (req transactionRequest) patch() (core.TransactionPatch, error) {
	var p core.TransactionPatch

	amount, err := parseJSONAmount(req.Amount)
	if err != nil {
		return p, err
	}
	p.Amount = amount

	if req.Description != nil {
		d := sanitizeInput(*req.Description)
		p.Description = &d
	}
	if req.Date != nil {
		var date time.Time
		if s := strings.TrimSpace(*req.Date); s != "" {
			if date, err = core.ParseDate(s); err != nil {
				return p, err
			}
		}
		p.Date = &date
	}
	if req.Category != nil {
		c := core.Category(strings.TrimSpace(*req.Category))
		p.Category = &c
	}
	return p, nil
}

// parseJSONAmount accepts a JSON number or a numeric string. Absent and null
// yield nil; an empty string or a zero value yields zero Money.
func parseJSONAmount(raw json.RawMessage) (*core.Money, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
		}
		s = strings.TrimSpace(str)
	}
	if s == "" || isZeroAmount(s) {
		return &core.Money{}, nil
	}

	m, err := core.ParseSignedAmount(s)
	if err != nil {
		return nil, &core.ValidationError{Field: "amount", Err: err}
	}
	return &m, nil
}

func isZeroAmount(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && d.IsZero()
}

// formValues echoes the submitted form back when it has to be shown again.
type formValues struct {
	Type        string
	Amount      string
	Description string
	Category    string
	Date        string
}

// fieldErrors maps form field names to the message shown under them.
type fieldErrors map[string]string

func (e fieldErrors) Any() bool { return len(e) > 0 }

// Messages shown under form fields.
const (
	msgAmountPositive    = "Amount must be greater than 0"
	msgAmountTooLarge    = "Amount is too large"
	msgDescriptionNeeded = "Description is required"
	msgDescriptionLong   = "Description must be at most 200 characters"
	msgCategoryInvalid   = "Select a valid category"
	msgDateInvalid       = "Select a valid date"
)

// parseTransactionForm validates the add/edit form. The amount is entered as
// a magnitude and the sign comes from the type selector. On success the
// patch carries every field.
func parseTransactionForm(w http.ResponseWriter, r *http.Request) (core.TransactionPatch, formValues, fieldErrors, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return core.TransactionPatch{}, formValues{}, nil, err
	}

	v := formValues{
		Type:        strings.TrimSpace(r.PostForm.Get("type")),
		Amount:      strings.TrimSpace(r.PostForm.Get("amount")),
		Description: sanitizeInput(r.PostForm.Get("description")),
		Category:    strings.TrimSpace(r.PostForm.Get("category")),
		Date:        strings.TrimSpace(r.PostForm.Get("date")),
	}
	if v.Type != string(core.KindExpense) {
		v.Type = string(core.KindIncome)
	}

	errs := fieldErrors{}
	var p core.TransactionPatch

	amount, err := core.ParseAmount(strings.TrimPrefix(v.Amount, "-"))
	switch {
	case err != nil:
		errs["amount"] = msgAmountPositive
	case amount.Decimal().GreaterThan(core.MaxFormAmount):
		errs["amount"] = msgAmountTooLarge
	default:
		if v.Type == string(core.KindExpense) {
			amount = amount.Neg()
		}
		p.Amount = &amount
	}

	if err := core.ValidateDescription(v.Description); err != nil {
		if errors.Is(err, core.ErrDescriptionTooLong) {
			errs["description"] = msgDescriptionLong
		} else {
			errs["description"] = msgDescriptionNeeded
		}
	} else {
		p.Description = &v.Description
	}

	if c, err := core.ParseCategory(v.Category); err != nil {
		errs["category"] = msgCategoryInvalid
	} else {
		p.Category = &c
	}

	if date, err := core.ParseDate(v.Date); err != nil {
		errs["date"] = msgDateInvalid
	} else {
		p.Date = &date
	}

	return p, v, errs, nil
}

// valuesFromTransaction fills the edit form from a stored transaction.
func valuesFromTransaction(t core.Transaction) formValues {
	return formValues{
		Type:        string(t.Kind()),
		Amount:      t.Amount.Abs().String(),
		Description: t.Description,
		Category:    t.Category.String(),
		Date:        t.Date.UTC().Format(core.DateLayout),
	}
}

// defaultFormValues starts a new entry as income in Other, dated today.
func defaultFormValues(now time.Time) formValues {
	return formValues{
		Type:     string(core.KindIncome),
		Category: core.CategoryOther.String(),
		Date:     now.UTC().Format(core.DateLayout),
	}
}
