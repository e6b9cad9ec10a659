package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// transactionResponse is the wire form of a transaction. Type is derived
// from the sign of the amount.
type transactionResponse struct {
	ID          string  `json:"_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Amount:      t.Amount.Float64(),
		Description: t.Description,
		Date:        core.FormatTimestamp(t.Date),
		Category:    t.Category.String(),
		Type:        string(t.Kind()),
		CreatedAt:   core.FormatTimestamp(t.CreatedAt),
		UpdatedAt:   core.FormatTimestamp(t.UpdatedAt),
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type monthlyDatum struct {
	Name    string  `json:"name"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type categoryDatum struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type statsResponse struct {
	MonthlyData        []monthlyDatum        `json:"monthlyData"`
	CategoryData       []categoryDatum       `json:"categoryData"`
	TotalIncome        float64               `json:"totalIncome"`
	TotalExpenses      float64               `json:"totalExpenses"`
	Balance            float64               `json:"balance"`
	TopCategory        string                `json:"topCategory"`
	RecentTransactions []transactionResponse `json:"recentTransactions"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.txs.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, log.ComponentTransaction, log.OpList, "Failed to fetch transactions")
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, err := decodeTransactionJSON(w, r)
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	t, err := s.txs.Create(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err, log.ComponentTransaction, log.OpCreate, "Failed to create transaction")
		return
	}
	s.appMetrics.record(core.ActionCreated)
	writeJSON(w, r, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.txs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, log.ComponentTransaction, log.OpRead, "Failed to fetch transaction")
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p, err := decodeTransactionJSON(w, r)
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	t, err := s.txs.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.writeServiceError(w, r, err, log.ComponentTransaction, log.OpUpdate, "Failed to update transaction")
		return
	}
	s.appMetrics.record(core.ActionUpdated)
	writeJSON(w, r, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.txs.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, log.ComponentTransaction, log.OpDelete, "Failed to delete transaction")
		return
	}
	s.appMetrics.record(core.ActionDeleted)
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	d, err := s.dash.Dashboard(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, log.ComponentDashboard, log.OpStats, "Failed to fetch stats")
		return
	}

	resp := statsResponse{
		MonthlyData:        make([]monthlyDatum, 0, len(d.Monthly)),
		CategoryData:       make([]categoryDatum, 0, len(d.Categories)),
		TotalIncome:        d.Summary.TotalIncome.Float64(),
		TotalExpenses:      d.Summary.TotalExpenses.Float64(),
		Balance:            d.Summary.Balance.Float64(),
		TopCategory:        d.Summary.TopCategory,
		RecentTransactions: toTransactionResponses(d.Recent),
	}
	for _, m := range d.Monthly {
		resp.MonthlyData = append(resp.MonthlyData, monthlyDatum{
			Name:    m.Label(),
			Income:  m.Income.Float64(),
			Expense: m.Expense.Abs().Float64(),
		})
	}
	for _, c := range d.Categories {
		resp.CategoryData = append(resp.CategoryData, categoryDatum{
			Name:  c.Category.String(),
			Value: c.Amount.Float64(),
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// writeServiceError maps service errors to API responses. Only validation
// messages reach the client; other failures are logged and replaced by
// fallback.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, component, op, fallback string) {
	switch {
	case errors.Is(err, core.ErrMissingFields):
		writeJSONError(w, r, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, storage.ErrNotFound):
		writeJSONError(w, r, http.StatusNotFound, "Transaction not found")
	case core.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.LogError(r.Context(), fallback, err, component, op,
			log.LogFields{log.FieldTransactionID: r.PathValue("id")})
		writeJSONError(w, r, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSONError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, errMalformedBody):
		writeJSONError(w, r, http.StatusBadRequest, "Invalid request body")
	default:
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
	}
}
