package http

import (
	"errors"
	"net/http"

	"gastapp/internal/core"
)

type budgetRequest struct {
	Category  string `json:"category"`
	Amount    string `json:"amount"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

type budgetResponse struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
}

type budgetStatusResponse struct {
	BudgetID          int64   `json:"budget_id"`
	SpentCents        int64   `json:"spent_cents"`
	RemainingCents    int64   `json:"remaining_cents"`
	Percentage        float64 `json:"percentage"`
	DisplayPercentage float64 `json:"display_percentage"`
	Status            string  `json:"status"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.String(),
		StartDate:   formatDate(b.StartDate),
		EndDate:     formatDate(b.EndDate),
	}
}

// toBudget builds the domain budget from a request body. A missing
// end_date makes the budget open-ended.
func (s *Server) toBudget(r *http.Request, req budgetRequest, userID int64) (core.Budget, error) {
	category, err := s.repo.CategoryBySlug(r.Context(), sanitizeInput(req.Category))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Budget{}, core.ErrMissingCategory
		}
		return core.Budget{}, err
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Budget{}, err
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return core.Budget{}, core.ErrInvalidDate
	}

	var end core.Date
	if req.EndDate != "" {
		end, err = parseDate(req.EndDate)
		if err != nil {
			return core.Budget{}, core.ErrInvalidDate
		}
	}

	return core.Budget{
		UserID:     userID,
		CategoryID: category.ID,
		Amount:     core.Money{Cents: cents},
		StartDate:  start,
		EndDate:    end,
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	budget, err := s.toBudget(r, req, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.budgets.CreateBudget(r.Context(), budget)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(saved))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	budgets, err := s.repo.ListBudgets(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
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

	budget, err := s.repo.GetBudget(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
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

	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	budget, err := s.toBudget(r, req, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	budget.ID = id

	if _, err := s.repo.GetBudget(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.budgets.UpdateBudget(r.Context(), budget)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
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

	if err := s.budgets.DeleteBudget(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
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

	status, err := s.budgets.Status(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, budgetStatusResponse{
		BudgetID:          id,
		SpentCents:        status.Spent.Cents,
		RemainingCents:    status.Remaining.Cents,
		Percentage:        status.Percentage,
		DisplayPercentage: status.DisplayPercentage(),
		Status:            string(status.Status),
	})
}
