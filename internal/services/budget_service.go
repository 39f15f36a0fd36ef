package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastapp/internal/core"
	"gastapp/internal/storage"
)

// BudgetService guards the one-budget-per-category-and-period rule and
// computes consumption statuses.
type BudgetService struct {
	storage *storage.Repository
	status  *StatusCache
}

func NewBudgetService(storage *storage.Repository, status *StatusCache) *BudgetService {
	return &BudgetService{
		storage: storage,
		status:  status,
	}
}

// CreateBudget checks, in order: the category exists, the budget itself
// is well formed, and no existing budget for the same user and category
// overlaps the period. Overlap failures surface as *core.OverlapError
// so callers can report the conflicting budget.
func (s *BudgetService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := s.validateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	s.invalidate(b.UserID)
	return saved, nil
}

// UpdateBudget runs the same checks as CreateBudget; the budget's own
// row is excluded from the overlap scan.
func (s *BudgetService) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := s.validateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	if err := s.storage.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	s.invalidate(b.UserID)
	updated, err := s.storage.GetBudget(ctx, b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("reload budget: %w", err)
	}
	return updated, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// Status computes how much of the budget its matched expenses consume.
// Results are cached briefly; any expense or budget write by the same
// user invalidates the cache.
func (s *BudgetService) Status(ctx context.Context, userID, budgetID int64) (core.Consumption, error) {
	if s.status != nil {
		if consumption, ok := s.status.Get(userID, budgetID); ok {
			return consumption, nil
		}
	}

	budget, err := s.storage.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return core.Consumption{}, err
	}
	expenses, err := s.storage.ListExpensesByCategory(ctx, userID, budget.CategoryID)
	if err != nil {
		return core.Consumption{}, fmt.Errorf("list expenses: %w", err)
	}

	matched := core.MatchExpenses(expenses, budget)
	consumption := core.ComputeConsumption(matched, budget)

	if s.status != nil {
		s.status.Set(userID, budgetID, consumption)
	}

	slog.DebugContext(ctx, "Computed budget status",
		"budget_id", budgetID,
		"user_id", userID,
		"matched", len(matched),
		"spent_cents", consumption.Spent.Cents,
		"status", consumption.Status)

	return consumption, nil
}

func (s *BudgetService) validateBudget(ctx context.Context, b core.Budget) error {
	if _, err := s.storage.CategoryByID(ctx, b.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("category %d: %w", b.CategoryID, core.ErrMissingCategory)
		}
		return fmt.Errorf("load category %d: %w", b.CategoryID, err)
	}
	if err := b.Validate(); err != nil {
		return err
	}

	existing, err := s.storage.ListBudgets(ctx, b.UserID)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	return core.ValidateNoOverlap(existing, b)
}

func (s *BudgetService) invalidate(userID int64) {
	if s.status != nil {
		s.status.InvalidateUser(userID)
	}
}
