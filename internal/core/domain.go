package core

import (
	"errors"
	"strings"
	"time"
)

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

type (
	// Frequency describes how often a recurring expense repeats.
	Frequency string

	// Date is a calendar day. All budget-period comparisons happen on
	// UTC-normalized dates, regardless of how the client encoded the
	// original timestamp.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is a global classification label shared by expenses and
	// budgets. Slug is the stable lookup key; numeric IDs are a storage
	// detail and must not be hardcoded anywhere.
	Category struct {
		ID          int64
		Name        string
		Slug        string
		Description string
	}

	// Expense is a single recorded spending transaction. CategoryID zero
	// means uncategorized, PaymentMethodID zero means unspecified.
	// Soft-deleted expenses keep their row with Active=false and never
	// count toward a budget.
	Expense struct {
		ID              int64
		UserID          int64
		CategoryID      int64
		PaymentMethodID int64
		Amount          Money
		Description     string
		Date            Date
		Frequency       Frequency
		Active          bool
		Notify          bool
		Note            string
	}

	// PaymentMethod records how an expense was paid. Global like
	// categories, but user-editable.
	PaymentMethod struct {
		ID   int64
		Name string
	}

	// Tag is a user-defined label attachable to any number of that
	// user's expenses.
	Tag struct {
		ID     int64
		UserID int64
		Name   string
	}

	// Reminder schedules a payment notice for one expense. Ownership
	// follows the expense. Notified flips once the client has shown the
	// notice; delivery itself happens outside this service.
	Reminder struct {
		ID        int64
		ExpenseID int64
		RemindOn  Date
		Notified  bool
	}

	// Budget is a spending ceiling for one category over [StartDate,
	// EndDate]. A zero EndDate means the budget is open-ended.
	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     Money
		StartDate  Date
		EndDate    Date
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrDateOrder        = errors.New("start date after end date")
	ErrMissingCategory  = errors.New("missing category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrNotFound         = errors.New("not found")

	ErrEmptyName            = errors.New("empty name")
	ErrMissingPaymentMethod = errors.New("missing payment method")
	ErrMissingExpense       = errors.New("missing expense")
	ErrTagAlreadyAttached   = errors.New("tag already attached to expense")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m minus other. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (f Frequency) Validate() error {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// Recurring reports whether the expense repeats on a schedule.
func (f Frequency) Recurring() bool {
	return f != FrequencyNone && f != ""
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Frequency != "" {
		if err := e.Frequency.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the field-level preconditions for creating a budget:
// a category reference, an ordered date range and a positive amount.
// Existence of the category and overlap with other budgets are checked
// separately against fetched state.
func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return ErrDateOrder
	}
	return b.Amount.Validate()
}

// OpenEnded reports whether the budget has no upper date bound.
func (b Budget) OpenEnded() bool {
	return b.EndDate.IsZero()
}

func (m PaymentMethod) Validate() error {
	return validateName(m.Name)
}

func (t Tag) Validate() error {
	return validateName(t.Name)
}

func (rem Reminder) Validate() error {
	if rem.ExpenseID <= 0 {
		return ErrMissingExpense
	}
	return rem.RemindOn.Validate()
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

// Contains reports whether the given day falls inside the budget period,
// both endpoints inclusive. An open-ended budget has no upper bound.
func (b Budget) Contains(d Date) bool {
	if d.Before(b.StartDate) {
		return false
	}
	if b.OpenEnded() {
		return true
	}
	return !d.After(b.EndDate)
}
