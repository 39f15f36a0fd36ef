package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gastapp/internal/core"
	"gastapp/internal/storage"
)

// RecurringProcessor materializes expense instances from recurring
// templates. Instances go through ExpenseService so a subscription
// charge landing on a nearly consumed budget still fires an alert.
type RecurringProcessor struct {
	storage        *storage.Repository
	expenseService *ExpenseService
}

func NewRecurringProcessor(storage *storage.Repository, expenseService *ExpenseService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:        storage,
		expenseService: expenseService,
	}
}

// ProcessDueTemplates walks all active recurring templates and creates
// an expense for each one that is due at now. A failing template is
// logged and skipped; the rest still run.
func (p *RecurringProcessor) ProcessDueTemplates(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.expenseService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, tmpl := range templates {
		due, err := p.isDue(tmpl, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check template dueness",
				"template_id", tmpl.Expense.ID,
				"frequency", tmpl.Expense.Frequency,
				"error", err)
			continue
		}
		if !due {
			continue
		}

		instance := core.Expense{
			UserID:          tmpl.Expense.UserID,
			CategoryID:      tmpl.Expense.CategoryID,
			PaymentMethodID: tmpl.Expense.PaymentMethodID,
			Amount:          tmpl.Expense.Amount,
			Description:     tmpl.Expense.Description,
			Date:            core.DateOf(now),
			Frequency:       core.FrequencyNone,
			Active:          true,
			Notify:          tmpl.Expense.Notify,
			Note:            tmpl.Expense.Note,
		}

		saved, event, err := p.expenseService.CreateExpense(ctx, instance)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from template",
				"template_id", tmpl.Expense.ID,
				"description", tmpl.Expense.Description,
				"error", err)
			continue
		}

		if err := p.storage.UpdateLastMaterialized(ctx, tmpl.Expense.ID, now); err != nil {
			// The instance is saved; worst case the next run re-checks.
			slog.ErrorContext(ctx, "Failed to record materialization",
				"template_id", tmpl.Expense.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created expense from recurring template",
			"template_id", tmpl.Expense.ID,
			"expense_id", saved.ID,
			"amount_cents", saved.Amount.Cents,
			"frequency", tmpl.Expense.Frequency,
			"alert", event != nil)
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}

func (p *RecurringProcessor) isDue(tmpl storage.RecurringTemplate, now time.Time) (bool, error) {
	checker, err := GetDuenessChecker(tmpl.Expense.Frequency)
	if err != nil {
		return false, err
	}
	return checker.IsDue(tmpl.LastMaterialized, now, tmpl.Expense.Date), nil
}
