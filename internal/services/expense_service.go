package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastapp/internal/amqp"
	"gastapp/internal/core"
	"gastapp/internal/storage"
)

// AlertPublisher sends threshold crossing alerts to the notification
// worker. *amqp.Client satisfies it.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// ExpenseService orchestrates expense writes across SQLite and AMQP.
// Creating an expense is also the only place threshold crossings are
// detected: the spent-before state is captured in the same transaction
// as the insert, so concurrent inserts cannot both see the pre-crossing
// percentage.
type ExpenseService struct {
	storage   *storage.Repository
	publisher AlertPublisher
	status    *StatusCache
}

func NewExpenseService(storage *storage.Repository, publisher AlertPublisher, status *StatusCache) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
		status:    status,
	}
}

// CreateExpense validates and saves an expense. When a budget covers
// the expense's category and day, it also evaluates whether this insert
// pushed the budget across the 90% or 100% threshold and, if so,
// publishes an alert. The returned event is nil when no threshold was
// crossed.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, *core.NotificationEvent, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, nil, err
	}

	budget, err := s.findCoveringBudget(ctx, e)
	if err != nil {
		return core.Expense{}, nil, err
	}
	if budget == nil {
		saved, err := s.storage.CreateExpense(ctx, e)
		if err != nil {
			return core.Expense{}, nil, fmt.Errorf("save expense: %w", err)
		}
		s.invalidate(e.UserID)
		return saved, nil, nil
	}

	category, err := s.storage.CategoryByID(ctx, e.CategoryID)
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("load category %d: %w", e.CategoryID, err)
	}

	saved, spentBefore, err := s.storage.CreateExpenseCapturingSpent(ctx, e, *budget)
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate(e.UserID)

	event := core.EvaluateThresholdCrossing(*budget, category.Name, spentBefore, e.Amount)
	if event != nil && e.Notify {
		s.publishAlert(ctx, e.UserID, event)
	}

	return saved, event, nil
}

// UpdateExpense rewrites an existing expense. Edits do not re-evaluate
// thresholds; only insertions fire alerts.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.invalidate(e.UserID)
	updated, err := s.storage.GetExpense(ctx, e.UserID, e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("reload expense: %w", err)
	}
	return updated, nil
}

// DeleteExpense soft deletes: the row stays but stops counting toward
// budget consumption.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.storage.SoftDeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	s.invalidate(userID)
	return nil
}

func (s *ExpenseService) findCoveringBudget(ctx context.Context, e core.Expense) (*core.Budget, error) {
	if e.CategoryID == 0 || !e.Active {
		return nil, nil
	}
	budget, err := s.storage.FindBudgetFor(ctx, e.UserID, e.CategoryID, core.DateOf(e.Date.Time))
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return &budget, nil
}

// publishAlert never fails the request: the expense is already saved
// and the broker being down must not block expense creation.
func (s *ExpenseService) publishAlert(ctx context.Context, userID int64, event *core.NotificationEvent) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping budget alert")
		return
	}

	msg := amqp.NewBudgetAlertMessage(
		string(event.Kind),
		userID,
		event.CategoryName,
		event.BudgetAmount.Cents,
		event.Amount.Cents,
	)
	if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"event_id", msg.EventID,
			"kind", msg.Kind,
			"user_id", userID,
			"error", err)
	}
}

func (s *ExpenseService) invalidate(userID int64) {
	if s.status != nil {
		s.status.InvalidateUser(userID)
	}
}
