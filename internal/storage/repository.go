package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastapp/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Repository persists expenses, budgets and categories in SQLite.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// _txlock=immediate makes BeginTx take the write lock up front, so
	// two concurrent expense insertions serialize instead of one of them
	// aborting with SQLITE_BUSY on lock upgrade. busy_timeout lets the
	// waiter block briefly rather than fail outright.
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database is reachable. Readiness checks use it.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---- categories ----

func (r *Repository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *Repository) CategoryBySlug(ctx context.Context, slug string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, description FROM categories WHERE slug = ?`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q: %w", slug, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by slug: %w", err)
	}
	return c, nil
}

func (r *Repository) CategoryByID(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, description FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

// ---- expenses ----

const expenseColumns = `id, user_id, COALESCE(category_id, 0), COALESCE(payment_method_id, 0),
	amount_cents, description, expense_date, frequency, active, notify, note`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.PaymentMethodID, &e.Amount.Cents,
		&e.Description, &dateStr, &e.Frequency, &e.Active, &e.Notify, &e.Note)
	if err != nil {
		return core.Expense{}, err
	}
	t, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", dateStr, err)
	}
	e.Date = core.DateOf(t)
	return e, nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, category_id, payment_method_id, amount_cents,
			description, expense_date, frequency, active, notify, note)
		VALUES (?, NULLIF(?, 0), NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, e.PaymentMethodID, e.Amount.Cents, e.Description,
		e.Date.Format(dateLayout), freqOrNone(e.Frequency), e.Active, e.Notify, e.Note)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", e.ID,
		"user_id", e.UserID,
		"category_id", e.CategoryID,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

// CreateExpenseCapturingSpent inserts an expense and returns the total
// already spent in the budget period before the insertion. Both happen in
// one transaction so two concurrent insertions cannot observe the same
// before-state and double-fire a threshold notification.
func (r *Repository) CreateExpenseCapturingSpent(ctx context.Context, e core.Expense, budget core.Budget) (core.Expense, core.Money, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, core.Money{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	spentBefore, err := sumMatchedTx(ctx, tx, e.UserID, budget)
	if err != nil {
		return core.Expense{}, core.Money{}, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (user_id, category_id, payment_method_id, amount_cents,
			description, expense_date, frequency, active, notify, note)
		VALUES (?, NULLIF(?, 0), NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, e.PaymentMethodID, e.Amount.Cents, e.Description,
		e.Date.Format(dateLayout), freqOrNone(e.Frequency), e.Active, e.Notify, e.Note)
	if err != nil {
		return core.Expense{}, core.Money{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, core.Money{}, fmt.Errorf("expense insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, core.Money{}, fmt.Errorf("commit expense: %w", err)
	}
	e.ID = id
	return e, spentBefore, nil
}

func sumMatchedTx(ctx context.Context, tx *sql.Tx, userID int64, budget core.Budget) (core.Money, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE user_id = ? AND category_id = ? AND active = 1 AND expense_date >= ?`
	args := []any{userID, budget.CategoryID, budget.StartDate.Format(dateLayout)}
	if !budget.OpenEnded() {
		query += ` AND expense_date <= ?`
		args = append(args, budget.EndDate.Format(dateLayout))
	}

	var cents int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum matched expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns the user's active expenses, newest first.
func (r *Repository) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND active = 1
		 ORDER BY expense_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// ListExpensesByCategory returns all of the user's expenses for one
// category, soft-deleted rows included. Filtering for budget matching is
// core.MatchExpenses' job, so every caller applies the same rules.
func (r *Repository) ListExpensesByCategory(ctx context.Context, userID, categoryID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND category_id = ?
		 ORDER BY expense_date DESC, id DESC`, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list expenses by category: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET category_id = NULLIF(?, 0), payment_method_id = NULLIF(?, 0),
			amount_cents = ?, description = ?, expense_date = ?, frequency = ?,
			active = ?, notify = ?, note = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		e.CategoryID, e.PaymentMethodID, e.Amount.Cents, e.Description,
		e.Date.Format(dateLayout), freqOrNone(e.Frequency), e.Active, e.Notify, e.Note,
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, e.ID)
}

// SoftDeleteExpense marks an expense inactive. The row stays so history
// and audits survive; budget matching ignores it from now on.
func (r *Repository) SoftDeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense soft-deleted", "expense_id", id, "user_id", userID)
	return nil
}

// ---- budgets ----

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b        core.Budget
		startStr string
		endStr   sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &startStr, &endStr)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse budget start date %q: %w", startStr, err)
	}
	b.StartDate = core.DateOf(start)
	if endStr.Valid {
		end, err := time.Parse(dateLayout, endStr.String)
		if err != nil {
			return core.Budget{}, fmt.Errorf("parse budget end date %q: %w", endStr.String, err)
		}
		b.EndDate = core.DateOf(end)
	}
	return b, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, amount_cents, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.Cents,
		b.StartDate.Format(dateLayout), nullableDate(b.EndDate))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
	}
	b.ID = id

	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID,
		"user_id", b.UserID,
		"category_id", b.CategoryID,
		"amount_cents", b.Amount.Cents)
	return b, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, start_date, end_date
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, start_date, end_date
		FROM budgets WHERE user_id = ? ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// FindBudgetFor returns the user's budget whose category and period cover
// the given day, or core.ErrNotFound when none applies.
func (r *Repository) FindBudgetFor(ctx context.Context, userID, categoryID int64, day core.Date) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, start_date, end_date
		FROM budgets
		WHERE user_id = ? AND category_id = ?
		  AND start_date <= ?
		  AND (end_date IS NULL OR end_date >= ?)`,
		userID, categoryID, day.Format(dateLayout), day.Format(dateLayout))
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget for day: %w", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount_cents = ?, start_date = ?, end_date = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Amount.Cents,
		b.StartDate.Format(dateLayout), nullableDate(b.EndDate),
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, b.ID)
}

// DeleteBudget removes a budget. Expenses are untouched.
func (r *Repository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id, "user_id", userID)
	return nil
}

// ---- recurring templates ----

// RecurringTemplate is an active recurring expense plus the last day an
// instance was materialized from it.
type RecurringTemplate struct {
	Expense          core.Expense
	LastMaterialized time.Time
}

func (r *Repository) ListRecurringTemplates(ctx context.Context) ([]RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+`, COALESCE(last_materialized, '')
		 FROM expenses
		 WHERE active = 1 AND frequency != 'none'
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []RecurringTemplate
	for rows.Next() {
		var (
			e       core.Expense
			dateStr string
			lastStr string
		)
		err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.PaymentMethodID, &e.Amount.Cents,
			&e.Description, &dateStr, &e.Frequency, &e.Active, &e.Notify, &e.Note, &lastStr)
		if err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		t, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse template date %q: %w", dateStr, err)
		}
		e.Date = core.DateOf(t)

		tmpl := RecurringTemplate{Expense: e}
		if lastStr != "" {
			last, err := time.Parse(dateLayout, lastStr)
			if err != nil {
				return nil, fmt.Errorf("parse last materialized %q: %w", lastStr, err)
			}
			tmpl.LastMaterialized = last
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

func (r *Repository) UpdateLastMaterialized(ctx context.Context, id int64, day time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET last_materialized = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, day.UTC().Format(dateLayout), id)
	if err != nil {
		return fmt.Errorf("update last materialized: %w", err)
	}
	return requireRow(res, id)
}

// ---- payment methods ----

func (r *Repository) PaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM payment_methods ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []core.PaymentMethod
	for rows.Next() {
		var m core.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *Repository) PaymentMethodByID(ctx context.Context, id int64) (core.PaymentMethod, error) {
	var m core.PaymentMethod
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM payment_methods WHERE id = ?`, id).
		Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentMethod{}, fmt.Errorf("payment method %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("get payment method: %w", err)
	}
	return m, nil
}

func (r *Repository) CreatePaymentMethod(ctx context.Context, m core.PaymentMethod) (core.PaymentMethod, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_methods (name) VALUES (?)`, m.Name)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("payment method insert id: %w", err)
	}
	m.ID = id
	return m, nil
}

func (r *Repository) UpdatePaymentMethod(ctx context.Context, m core.PaymentMethod) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_methods SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, m.Name, m.ID)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	return requireRow(res, m.ID)
}

func (r *Repository) DeletePaymentMethod(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM payment_methods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	return requireRow(res, id)
}

// ---- tags ----

func (r *Repository) ListTags(ctx context.Context, userID int64) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM tags WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

func (r *Repository) GetTag(ctx context.Context, userID, id int64) (core.Tag, error) {
	var t core.Tag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM tags WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tag{}, fmt.Errorf("tag %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

func (r *Repository) CreateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name) VALUES (?, ?)`, t.UserID, t.Name)
	if err != nil {
		return core.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Tag{}, fmt.Errorf("tag insert id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (r *Repository) UpdateTag(ctx context.Context, t core.Tag) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`, t.Name, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return requireRow(res, t.ID)
}

// DeleteTag removes a tag and its attachments to expenses.
func (r *Repository) DeleteTag(ctx context.Context, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM expense_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("delete tag attachments: %w", err)
	}
	return tx.Commit()
}

// AttachTag links a tag to an expense. Both must belong to userID.
func (r *Repository) AttachTag(ctx context.Context, userID, expenseID, tagID int64) error {
	if _, err := r.GetExpense(ctx, userID, expenseID); err != nil {
		return err
	}
	if _, err := r.GetTag(ctx, userID, tagID); err != nil {
		return err
	}

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM expense_tags WHERE expense_id = ? AND tag_id = ?`,
		expenseID, tagID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check tag attachment: %w", err)
	}
	if exists > 0 {
		return core.ErrTagAlreadyAttached
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO expense_tags (expense_id, tag_id) VALUES (?, ?)`,
		expenseID, tagID); err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

func (r *Repository) DetachTag(ctx context.Context, userID, expenseID, tagID int64) error {
	if _, err := r.GetExpense(ctx, userID, expenseID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expense_tags WHERE expense_id = ? AND tag_id = ?`,
		expenseID, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return requireRow(res, tagID)
}

func (r *Repository) TagsForExpense(ctx context.Context, userID, expenseID int64) ([]core.Tag, error) {
	if _, err := r.GetExpense(ctx, userID, expenseID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name
		FROM tags t
		JOIN expense_tags et ON et.tag_id = t.id
		WHERE et.expense_id = ?
		ORDER BY t.id`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list expense tags: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

func collectTags(rows *sql.Rows) ([]core.Tag, error) {
	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ---- payment reminders ----

const reminderQuery = `
	SELECT pr.id, pr.expense_id, pr.remind_on, pr.notified
	FROM payment_reminders pr
	JOIN expenses e ON e.id = pr.expense_id`

func scanReminder(row interface{ Scan(...any) error }) (core.Reminder, error) {
	var (
		rem     core.Reminder
		dateStr string
	)
	if err := row.Scan(&rem.ID, &rem.ExpenseID, &dateStr, &rem.Notified); err != nil {
		return core.Reminder{}, err
	}
	t, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("parse reminder date %q: %w", dateStr, err)
	}
	rem.RemindOn = core.DateOf(t)
	return rem, nil
}

// ListReminders returns all reminders on the user's expenses.
func (r *Repository) ListReminders(ctx context.Context, userID int64) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		reminderQuery+` WHERE e.user_id = ? ORDER BY pr.remind_on, pr.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func (r *Repository) GetReminder(ctx context.Context, userID, id int64) (core.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		reminderQuery+` WHERE pr.id = ? AND e.user_id = ?`, id, userID)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, fmt.Errorf("reminder %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

// CreateReminder stores a reminder for one of the user's expenses. The
// expense must exist and belong to userID.
func (r *Repository) CreateReminder(ctx context.Context, userID int64, rem core.Reminder) (core.Reminder, error) {
	if _, err := r.GetExpense(ctx, userID, rem.ExpenseID); err != nil {
		return core.Reminder{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_reminders (expense_id, remind_on, notified)
		VALUES (?, ?, ?)`,
		rem.ExpenseID, rem.RemindOn.Format(dateLayout), rem.Notified)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Reminder{}, fmt.Errorf("reminder insert id: %w", err)
	}
	rem.ID = id
	return rem, nil
}

func (r *Repository) UpdateReminder(ctx context.Context, userID int64, rem core.Reminder) error {
	// Ownership check via the joined lookup; the update itself is keyed
	// by reminder id only.
	if _, err := r.GetReminder(ctx, userID, rem.ID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_reminders
		SET remind_on = ?, notified = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rem.RemindOn.Format(dateLayout), rem.Notified, rem.ID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return requireRow(res, rem.ID)
}

func (r *Repository) DeleteReminder(ctx context.Context, userID, id int64) error {
	if _, err := r.GetReminder(ctx, userID, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM payment_reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRow(res, id)
}

// ---- helpers ----

func freqOrNone(f core.Frequency) core.Frequency {
	if f == "" {
		return core.FrequencyNone
	}
	return f
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Format(dateLayout)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("row %d: %w", id, core.ErrNotFound)
	}
	return nil
}
