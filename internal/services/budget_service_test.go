package services

import (
	"context"
	"errors"
	"testing"

	"gastapp/internal/core"
)

func TestCreateBudget_MissingCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.budgets.CreateBudget(context.Background(), core.Budget{
		UserID:     7,
		CategoryID: 9999,
		Amount:     core.Money{Cents: 10000},
		StartDate:  core.NewDate(2025, 1, 1),
	})
	if !errors.Is(err, core.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
}

func TestCreateBudget_RejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.budgets.CreateBudget(ctx, core.Budget{
		UserID:     7,
		CategoryID: f.foodID,
		Amount:     core.Money{Cents: 20000},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	})
	if err != nil {
		t.Fatalf("first budget: %v", err)
	}

	_, err = f.budgets.CreateBudget(ctx, core.Budget{
		UserID:     7,
		CategoryID: f.foodID,
		Amount:     core.Money{Cents: 15000},
		StartDate:  core.NewDate(2025, 1, 20),
		EndDate:    core.NewDate(2025, 2, 20),
	})
	var overlap *core.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
	if overlap.BudgetID != first.ID {
		t.Fatalf("conflicting budget = %d, want %d", overlap.BudgetID, first.ID)
	}

	// Disjoint follow-up period is fine.
	if _, err := f.budgets.CreateBudget(ctx, core.Budget{
		UserID:     7,
		CategoryID: f.foodID,
		Amount:     core.Money{Cents: 15000},
		StartDate:  core.NewDate(2025, 2, 1),
		EndDate:    core.NewDate(2025, 2, 28),
	}); err != nil {
		t.Fatalf("disjoint budget: %v", err)
	}
}

func TestUpdateBudget_SkipsOwnRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	budget, err := f.budgets.CreateBudget(ctx, core.Budget{
		UserID:     7,
		CategoryID: f.foodID,
		Amount:     core.Money{Cents: 20000},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	budget.Amount = core.Money{Cents: 25000}
	updated, err := f.budgets.UpdateBudget(ctx, budget)
	if err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if updated.Amount.Cents != 25000 {
		t.Fatalf("amount = %d, want 25000", updated.Amount.Cents)
	}
}

func TestBudgetStatus(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(t, 20000)
	ctx := context.Background()

	for _, cents := range []int64{5000, 6000} {
		if _, _, err := f.expenses.CreateExpense(ctx, f.expense(cents)); err != nil {
			t.Fatalf("CreateExpense(%d): %v", cents, err)
		}
	}

	status, err := f.budgets.Status(ctx, 7, budget.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Spent.Cents != 11000 {
		t.Errorf("spent = %d, want 11000", status.Spent.Cents)
	}
	if status.Remaining.Cents != 9000 {
		t.Errorf("remaining = %d, want 9000", status.Remaining.Cents)
	}
	if status.Percentage != 55.0 {
		t.Errorf("percentage = %v, want 55", status.Percentage)
	}
	if status.Status != core.StatusUnder {
		t.Errorf("status = %v, want under", status.Status)
	}
}

func TestBudgetStatus_UsesCache(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(t, 20000)
	ctx := context.Background()

	if _, _, err := f.expenses.CreateExpense(ctx, f.expense(5000)); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if _, err := f.budgets.Status(ctx, 7, budget.ID); err != nil {
		t.Fatalf("Status: %v", err)
	}

	// Write behind the service's back: the stale cached value is served
	// until something invalidates it.
	if _, err := f.repo.CreateExpense(ctx, f.expense(6000)); err != nil {
		t.Fatalf("raw CreateExpense: %v", err)
	}
	cached, err := f.budgets.Status(ctx, 7, budget.ID)
	if err != nil {
		t.Fatalf("Status cached: %v", err)
	}
	if cached.Spent.Cents != 5000 {
		t.Fatalf("cached spent = %d, want stale 5000", cached.Spent.Cents)
	}

	f.status.InvalidateUser(7)
	fresh, err := f.budgets.Status(ctx, 7, budget.ID)
	if err != nil {
		t.Fatalf("Status fresh: %v", err)
	}
	if fresh.Spent.Cents != 11000 {
		t.Fatalf("fresh spent = %d, want 11000", fresh.Spent.Cents)
	}
}

func TestBudgetStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.budgets.Status(context.Background(), 7, 424242)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
