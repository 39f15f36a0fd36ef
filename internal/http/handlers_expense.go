package http

import (
	"errors"
	"net/http"

	"gastapp/internal/core"
)

type expenseRequest struct {
	Category        string `json:"category,omitempty"`
	PaymentMethodID int64  `json:"payment_method_id,omitempty"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	Frequency       string `json:"frequency,omitempty"`
	Notify          *bool  `json:"notify,omitempty"`
	Note            string `json:"note,omitempty"`
}

type expenseResponse struct {
	ID              int64  `json:"id"`
	CategoryID      int64  `json:"category_id,omitempty"`
	PaymentMethodID int64  `json:"payment_method_id,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	Frequency       string `json:"frequency"`
	Active          bool   `json:"active"`
	Notify          bool   `json:"notify"`
	Note            string `json:"note,omitempty"`
}

// alertResponse reports a threshold crossing caused by this request.
type alertResponse struct {
	Kind              string `json:"kind"`
	CategoryName      string `json:"category_name"`
	BudgetAmountCents int64  `json:"budget_amount_cents"`
	AmountCents       int64  `json:"amount_cents"`
}

type createExpenseResponse struct {
	Expense expenseResponse `json:"expense"`
	Alert   *alertResponse  `json:"alert,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:              e.ID,
		CategoryID:      e.CategoryID,
		PaymentMethodID: e.PaymentMethodID,
		AmountCents:     e.Amount.Cents,
		Amount:          e.Amount.String(),
		Description:     e.Description,
		Date:            formatDate(e.Date),
		Frequency:       string(e.Frequency),
		Active:          e.Active,
		Notify:          e.Notify,
		Note:            e.Note,
	}
}

// toExpense builds the domain expense from a request body; category
// slugs resolve to IDs, an empty slug means uncategorized.
func (s *Server) toExpense(r *http.Request, req expenseRequest, userID int64) (core.Expense, error) {
	var categoryID int64
	if slug := sanitizeInput(req.Category); slug != "" {
		category, err := s.repo.CategoryBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.Expense{}, core.ErrMissingCategory
			}
			return core.Expense{}, err
		}
		categoryID = category.ID
	}

	if req.PaymentMethodID != 0 {
		if _, err := s.repo.PaymentMethodByID(r.Context(), req.PaymentMethodID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.Expense{}, core.ErrMissingPaymentMethod
			}
			return core.Expense{}, err
		}
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return core.Expense{}, core.ErrInvalidDate
	}

	frequency := core.FrequencyNone
	if req.Frequency != "" {
		frequency = core.Frequency(req.Frequency)
	}

	notify := true
	if req.Notify != nil {
		notify = *req.Notify
	}

	return core.Expense{
		UserID:          userID,
		CategoryID:      categoryID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          core.Money{Cents: cents},
		Description:     sanitizeInput(req.Description),
		Date:            date,
		Frequency:       frequency,
		Active:          true,
		Notify:          notify,
		Note:            sanitizeInput(req.Note),
	}, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	expense, err := s.toExpense(r, req, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	saved, event, err := s.expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := createExpenseResponse{Expense: toExpenseResponse(saved)}
	if event != nil {
		resp.Alert = &alertResponse{
			Kind:              string(event.Kind),
			CategoryName:      event.CategoryName,
			BudgetAmountCents: event.BudgetAmount.Cents,
			AmountCents:       event.Amount.Cents,
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	expenses, err := s.repo.ListExpenses(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.repo.GetExpense(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	expense, err := s.toExpense(r, req, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expense.ID = id

	// The row must exist and belong to the caller.
	current, err := s.repo.GetExpense(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	expense.Active = current.Active

	updated, err := s.expenses.UpdateExpense(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	category, err := s.repo.CategoryBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	expenses, err := s.repo.ListExpensesByCategory(r.Context(), userID, category.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		if !e.Active {
			continue
		}
		out = append(out, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}
