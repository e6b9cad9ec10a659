package http

import (
	"context"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/reporting"
	"fintrack/internal/storage"
)

// handleDashboardPage renders summary cards, charts and recent transactions.
// A failing store read still renders the page with empty data.
func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	d, err := s.dash.Dashboard(ctx)
	if err != nil {
		log.LogError(ctx, "Dashboard load error", err, log.ComponentDashboard, log.OpStats, nil)
		d = reporting.Snapshot(nil)
	}
	s.render(w, r, http.StatusOK, "dashboard.html", newDashboardView(d))
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	txs, err := s.txs.List(ctx)
	if err != nil {
		log.LogError(ctx, "Transaction list error", err, log.ComponentTransaction, log.OpList, nil)
	}
	s.render(w, r, http.StatusOK, "transactions.html", transactionsView{
		page:         page{Title: "Transactions", Active: "transactions"},
		Transactions: newTransactionViews(txs),
	})
}

func (s *Server) newForm(editing bool, action string, values formValues) formView {
	title := "Add Transaction"
	if editing {
		title = "Edit Transaction"
	}
	return formView{
		page:       page{Title: title, Active: "transactions"},
		Editing:    editing,
		Action:     action,
		Values:     values,
		Errors:     fieldErrors{},
		Categories: categoryNames(),
	}
}

func (s *Server) handleNewTransactionForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "transaction_form.html",
		s.newForm(false, "/transactions/new", defaultFormValues(s.now())))
}

func (s *Server) handleCreateTransactionForm(w http.ResponseWriter, r *http.Request) {
	p, values, errs, err := parseTransactionForm(w, r)
	if err != nil {
		BadRequestError("Invalid form submission").Write(w)
		return
	}

	form := s.newForm(false, "/transactions/new", values)
	if errs.Any() {
		form.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "transaction_form.html", form)
		return
	}

	t, err := s.txs.Create(r.Context(), p)
	if err != nil {
		s.renderFormError(w, r, form, err, log.OpCreate)
		return
	}
	s.appMetrics.record(core.ActionCreated)
	redirectAfterMutation(w, r, "/transactions", core.ActionCreated, t.ID)
}

func (s *Server) handleEditTransactionForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "transaction_form.html",
		s.newForm(true, "/transactions/"+id+"/edit", valuesFromTransaction(t)))
}

func (s *Server) handleUpdateTransactionForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, values, errs, err := parseTransactionForm(w, r)
	if err != nil {
		BadRequestError("Invalid form submission").Write(w)
		return
	}

	form := s.newForm(true, "/transactions/"+id+"/edit", values)
	if errs.Any() {
		form.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "transaction_form.html", form)
		return
	}

	if _, err := s.txs.Update(r.Context(), id, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		s.renderFormError(w, r, form, err, log.OpUpdate)
		return
	}
	s.appMetrics.record(core.ActionUpdated)
	redirectAfterMutation(w, r, "/transactions", core.ActionUpdated, id)
}

func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "transaction_delete.html", deleteView{
		page:        page{Title: "Delete Transaction", Active: "transactions"},
		Transaction: newTransactionView(t),
	})
}

func (s *Server) handleDeleteTransactionForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.txs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		log.LogError(r.Context(), "Failed to delete transaction", err, log.ComponentTransaction, log.OpDelete,
			log.LogFields{log.FieldTransactionID: id})
		InternalServerError("Failed to delete transaction").Write(w)
		return
	}
	s.appMetrics.record(core.ActionDeleted)
	redirectAfterMutation(w, r, "/transactions", core.ActionDeleted, id)
}

// lookup loads a transaction for a page, writing 404 or 500 itself on failure.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, id string) (core.Transaction, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	t, err := s.txs.Get(ctx, id)
	switch {
	case err == nil:
		return t, true
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("Transaction not found").Write(w)
	default:
		log.LogError(ctx, "Failed to load transaction", err, log.ComponentTransaction, log.OpRead,
			log.LogFields{log.FieldTransactionID: id})
		InternalServerError("Failed to fetch transaction").Write(w)
	}
	return core.Transaction{}, false
}

// renderFormError shows a service failure on the form. Validation failures
// the form checks missed are attached to their field.
func (s *Server) renderFormError(w http.ResponseWriter, r *http.Request, form formView, err error, op string) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		form.Errors = fieldErrors{ve.Field: ve.Error()}
		s.render(w, r, http.StatusUnprocessableEntity, "transaction_form.html", form)
		return
	}

	log.LogError(r.Context(), "Failed to save transaction", err, log.ComponentTransaction, op, nil)
	form.Error = "Failed to save transaction"
	s.render(w, r, http.StatusInternalServerError, "transaction_form.html", form)
}
