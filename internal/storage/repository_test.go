package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gastapp/internal/core"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "gastapp.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeededCategories(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	cats, err := repo.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("expected seeded categories")
	}

	food, err := repo.CategoryBySlug(ctx, "comida")
	if err != nil {
		t.Fatalf("CategoryBySlug: %v", err)
	}
	if food.Name != "Comida" {
		t.Fatalf("name = %q, want Comida", food.Name)
	}

	_, err = repo.CategoryBySlug(ctx, "inexistente")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	food, err := repo.CategoryBySlug(ctx, "comida")
	if err != nil {
		t.Fatalf("CategoryBySlug: %v", err)
	}

	e := core.Expense{
		UserID:      7,
		CategoryID:  food.ID,
		Amount:      core.Money{Cents: 1250},
		Description: "mercado",
		Date:        core.NewDate(2025, 1, 10),
		Frequency:   core.FrequencyNone,
		Active:      true,
	}
	saved, err := repo.CreateExpense(ctx, e)
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := repo.GetExpense(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Amount.Cents != 1250 || got.Description != "mercado" || !got.Active {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Date.Equal(core.NewDate(2025, 1, 10).Time) {
		t.Fatalf("date = %v", got.Date)
	}

	// Ownership: another user cannot see the row.
	if _, err := repo.GetExpense(ctx, 8, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}

	got.Amount = core.Money{Cents: 2000}
	got.Note = "actualizado"
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got2, err := repo.GetExpense(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetExpense after update: %v", err)
	}
	if got2.Amount.Cents != 2000 || got2.Note != "actualizado" {
		t.Fatalf("update not persisted: %+v", got2)
	}

	if err := repo.SoftDeleteExpense(ctx, 7, saved.ID); err != nil {
		t.Fatalf("SoftDeleteExpense: %v", err)
	}
	active, err := repo.ListExpenses(ctx, 7)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("soft-deleted expense still listed: %+v", active)
	}
	// The row itself survives.
	kept, err := repo.GetExpense(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetExpense after soft delete: %v", err)
	}
	if kept.Active {
		t.Fatal("expected active=false after soft delete")
	}
}

func TestSoftDeleteMissingExpense(t *testing.T) {
	repo := testRepo(t)
	err := repo.SoftDeleteExpense(context.Background(), 7, 9999)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	food, _ := repo.CategoryBySlug(ctx, "comida")
	b := core.Budget{
		UserID:     7,
		CategoryID: food.ID,
		Amount:     core.Money{Cents: 20000},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	}
	saved, err := repo.CreateBudget(ctx, b)
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	got, err := repo.GetBudget(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got.Amount.Cents != 20000 || got.OpenEnded() {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	found, err := repo.FindBudgetFor(ctx, 7, food.ID, core.NewDate(2025, 1, 15))
	if err != nil {
		t.Fatalf("FindBudgetFor: %v", err)
	}
	if found.ID != saved.ID {
		t.Fatalf("found budget %d, want %d", found.ID, saved.ID)
	}
	if _, err := repo.FindBudgetFor(ctx, 7, food.ID, core.NewDate(2025, 2, 1)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound outside period, got %v", err)
	}

	got.EndDate = core.Date{}
	if err := repo.UpdateBudget(ctx, got); err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	open, err := repo.GetBudget(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetBudget after update: %v", err)
	}
	if !open.OpenEnded() {
		t.Fatalf("expected open-ended budget, got end %v", open.EndDate)
	}
	// Open-ended budgets match any later day.
	if _, err := repo.FindBudgetFor(ctx, 7, food.ID, core.NewDate(2027, 6, 1)); err != nil {
		t.Fatalf("FindBudgetFor open-ended: %v", err)
	}

	if err := repo.DeleteBudget(ctx, 7, saved.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := repo.GetBudget(ctx, 7, saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateExpenseCapturingSpent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	food, _ := repo.CategoryBySlug(ctx, "comida")
	budget := core.Budget{
		UserID:     7,
		CategoryID: food.ID,
		Amount:     core.Money{Cents: 20000},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	}
	budget, err := repo.CreateBudget(ctx, budget)
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}

	mk := func(cents int64, day int) core.Expense {
		return core.Expense{
			UserID:      7,
			CategoryID:  food.ID,
			Amount:      core.Money{Cents: cents},
			Description: "compra",
			Date:        core.NewDate(2025, 1, day),
			Active:      true,
		}
	}

	_, before, err := repo.CreateExpenseCapturingSpent(ctx, mk(5000, 5), budget)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if before.Cents != 0 {
		t.Fatalf("spent before first insert = %d, want 0", before.Cents)
	}

	_, before, err = repo.CreateExpenseCapturingSpent(ctx, mk(6000, 20), budget)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if before.Cents != 5000 {
		t.Fatalf("spent before second insert = %d, want 5000", before.Cents)
	}

	// Soft-deleted and out-of-period rows do not count toward the sum.
	del, _ := repo.CreateExpense(ctx, mk(9999, 10))
	if err := repo.SoftDeleteExpense(ctx, 7, del.ID); err != nil {
		t.Fatalf("SoftDeleteExpense: %v", err)
	}
	outside := mk(7777, 10)
	outside.Date = core.NewDate(2025, 2, 10)
	if _, err := repo.CreateExpense(ctx, outside); err != nil {
		t.Fatalf("CreateExpense outside period: %v", err)
	}

	_, before, err = repo.CreateExpenseCapturingSpent(ctx, mk(100, 25), budget)
	if err != nil {
		t.Fatalf("third insert: %v", err)
	}
	if before.Cents != 11000 {
		t.Fatalf("spent before third insert = %d, want 11000", before.Cents)
	}
}

func TestRecurringTemplates(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	subs, _ := repo.CategoryBySlug(ctx, "suscripciones")
	tmpl := core.Expense{
		UserID:      7,
		CategoryID:  subs.ID,
		Amount:      core.Money{Cents: 1399},
		Description: "Netflix Estándar",
		Date:        core.NewDate(2025, 1, 1),
		Frequency:   core.FrequencyMonthly,
		Active:      true,
		Notify:      true,
	}
	saved, err := repo.CreateExpense(ctx, tmpl)
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	// Non-recurring expenses must not show up as templates.
	plain := tmpl
	plain.Frequency = core.FrequencyNone
	if _, err := repo.CreateExpense(ctx, plain); err != nil {
		t.Fatalf("CreateExpense plain: %v", err)
	}

	templates, err := repo.ListRecurringTemplates(ctx)
	if err != nil {
		t.Fatalf("ListRecurringTemplates: %v", err)
	}
	if len(templates) != 1 || templates[0].Expense.ID != saved.ID {
		t.Fatalf("templates = %+v", templates)
	}
	if !templates[0].LastMaterialized.IsZero() {
		t.Fatal("fresh template should have zero last materialized")
	}

	day := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	if err := repo.UpdateLastMaterialized(ctx, saved.ID, day); err != nil {
		t.Fatalf("UpdateLastMaterialized: %v", err)
	}
	templates, err = repo.ListRecurringTemplates(ctx)
	if err != nil {
		t.Fatalf("ListRecurringTemplates: %v", err)
	}
	want := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if !templates[0].LastMaterialized.Equal(want) {
		t.Fatalf("last materialized = %v, want %v", templates[0].LastMaterialized, want)
	}
}

func TestPaymentMethods(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	methods, err := repo.PaymentMethods(ctx)
	if err != nil {
		t.Fatalf("PaymentMethods: %v", err)
	}
	if len(methods) == 0 {
		t.Fatal("expected seeded payment methods")
	}
	found := false
	for _, m := range methods {
		if m.Name == "Efectivo" {
			found = true
		}
	}
	if !found {
		t.Error("seeded method Efectivo missing")
	}

	created, err := repo.CreatePaymentMethod(ctx, core.PaymentMethod{Name: "PayPal"})
	if err != nil {
		t.Fatalf("CreatePaymentMethod: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	created.Name = "PayPal Business"
	if err := repo.UpdatePaymentMethod(ctx, created); err != nil {
		t.Fatalf("UpdatePaymentMethod: %v", err)
	}
	got, err := repo.PaymentMethodByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("PaymentMethodByID: %v", err)
	}
	if got.Name != "PayPal Business" {
		t.Fatalf("name = %q", got.Name)
	}

	if err := repo.DeletePaymentMethod(ctx, created.ID); err != nil {
		t.Fatalf("DeletePaymentMethod: %v", err)
	}
	if _, err := repo.PaymentMethodByID(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestExpenseCarriesPaymentMethod(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	methods, err := repo.PaymentMethods(ctx)
	if err != nil {
		t.Fatalf("PaymentMethods: %v", err)
	}

	saved, err := repo.CreateExpense(ctx, core.Expense{
		UserID:          7,
		PaymentMethodID: methods[0].ID,
		Amount:          core.Money{Cents: 900},
		Description:     "taxi",
		Date:            core.NewDate(2025, 3, 1),
		Active:          true,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	got, err := repo.GetExpense(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.PaymentMethodID != methods[0].ID {
		t.Fatalf("payment method = %d, want %d", got.PaymentMethodID, methods[0].ID)
	}

	got.PaymentMethodID = 0
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, err = repo.GetExpense(ctx, 7, saved.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.PaymentMethodID != 0 {
		t.Fatalf("payment method should clear, got %d", got.PaymentMethodID)
	}
}

func TestTagLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	tag, err := repo.CreateTag(ctx, core.Tag{UserID: 7, Name: "vacaciones"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	expense, err := repo.CreateExpense(ctx, core.Expense{
		UserID:      7,
		Amount:      core.Money{Cents: 4500},
		Description: "hotel",
		Date:        core.NewDate(2025, 7, 1),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := repo.AttachTag(ctx, 7, expense.ID, tag.ID); err != nil {
		t.Fatalf("AttachTag: %v", err)
	}
	if err := repo.AttachTag(ctx, 7, expense.ID, tag.ID); !errors.Is(err, core.ErrTagAlreadyAttached) {
		t.Fatalf("duplicate attach: expected ErrTagAlreadyAttached, got %v", err)
	}

	tags, err := repo.TagsForExpense(ctx, 7, expense.ID)
	if err != nil {
		t.Fatalf("TagsForExpense: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "vacaciones" {
		t.Fatalf("tags = %+v", tags)
	}

	// Another user can see neither the tag nor the expense's tags.
	if _, err := repo.GetTag(ctx, 8, tag.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user GetTag: expected ErrNotFound, got %v", err)
	}
	if err := repo.AttachTag(ctx, 8, expense.ID, tag.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user AttachTag: expected ErrNotFound, got %v", err)
	}

	if err := repo.DetachTag(ctx, 7, expense.ID, tag.ID); err != nil {
		t.Fatalf("DetachTag: %v", err)
	}
	tags, err = repo.TagsForExpense(ctx, 7, expense.ID)
	if err != nil {
		t.Fatalf("TagsForExpense: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("tags after detach = %+v", tags)
	}

	if err := repo.AttachTag(ctx, 7, expense.ID, tag.ID); err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	if err := repo.DeleteTag(ctx, 7, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	tags, err = repo.TagsForExpense(ctx, 7, expense.ID)
	if err != nil {
		t.Fatalf("TagsForExpense: %v", err)
	}
	if len(tags) != 0 {
		t.Fatal("deleting a tag should remove its attachments")
	}
}

func TestReminderLifecycle(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	expense, err := repo.CreateExpense(ctx, core.Expense{
		UserID:      7,
		Amount:      core.Money{Cents: 35000},
		Description: "alquiler",
		Date:        core.NewDate(2025, 4, 1),
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	rem, err := repo.CreateReminder(ctx, 7, core.Reminder{
		ExpenseID: expense.ID,
		RemindOn:  core.NewDate(2025, 5, 1),
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if rem.ID == 0 {
		t.Fatal("expected assigned id")
	}

	// Reminders on somebody else's expense are rejected.
	_, err = repo.CreateReminder(ctx, 8, core.Reminder{
		ExpenseID: expense.ID,
		RemindOn:  core.NewDate(2025, 5, 1),
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user create: expected ErrNotFound, got %v", err)
	}

	got, err := repo.GetReminder(ctx, 7, rem.ID)
	if err != nil {
		t.Fatalf("GetReminder: %v", err)
	}
	if !got.RemindOn.Equal(core.NewDate(2025, 5, 1).Time) || got.Notified {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := repo.GetReminder(ctx, 8, rem.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user get: expected ErrNotFound, got %v", err)
	}

	got.Notified = true
	got.RemindOn = core.NewDate(2025, 6, 1)
	if err := repo.UpdateReminder(ctx, 7, got); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	list, err := repo.ListReminders(ctx, 7)
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(list) != 1 || !list[0].Notified || !list[0].RemindOn.Equal(core.NewDate(2025, 6, 1).Time) {
		t.Fatalf("reminders = %+v", list)
	}

	if err := repo.DeleteReminder(ctx, 8, rem.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteReminder(ctx, 7, rem.ID); err != nil {
		t.Fatalf("DeleteReminder: %v", err)
	}
	if _, err := repo.GetReminder(ctx, 7, rem.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateExpenseCapturingSpentConcurrent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	food, err := repo.CategoryBySlug(ctx, "comida")
	if err != nil {
		t.Fatalf("CategoryBySlug: %v", err)
	}
	budget := core.Budget{
		UserID:     7,
		CategoryID: food.ID,
		Amount:     core.Money{Cents: 20000},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	}

	// Both insertions must commit; the write lock is taken up front so
	// neither aborts on lock upgrade.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = repo.CreateExpenseCapturingSpent(ctx, core.Expense{
				UserID:      7,
				CategoryID:  food.ID,
				Amount:      core.Money{Cents: 5000},
				Description: "compra",
				Date:        core.NewDate(2025, 1, 15),
				Active:      true,
			}, budget)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent insert %d: %v", i, err)
		}
	}

	expenses, err := repo.ListExpenses(ctx, 7)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(expenses))
	}
}
