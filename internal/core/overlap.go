package core

import "fmt"

// OverlapError reports a budget-period conflict: the candidate shares its
// category and part of its date range with an existing budget of the same
// user. It is surfaced to the user and never auto-resolved.
type OverlapError struct {
	BudgetID   int64
	CategoryID int64
	StartDate  Date
	EndDate    Date
}

func (e *OverlapError) Error() string {
	if e.EndDate.IsZero() {
		return fmt.Sprintf("budget overlaps existing budget %d (from %s, open-ended)",
			e.BudgetID, e.StartDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("budget overlaps existing budget %d (%s to %s)",
		e.BudgetID, e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"))
}

// Overlaps reports whether two budget periods share at least one day.
// A zero end date is treated as positive infinity on either side.
func (b Budget) Overlaps(other Budget) bool {
	if !b.OpenEnded() && b.EndDate.Before(other.StartDate) {
		return false
	}
	if !other.OpenEnded() && other.EndDate.Before(b.StartDate) {
		return false
	}
	return true
}

// ValidateNoOverlap rejects a candidate budget whose category and date
// range overlap any existing budget of the same user. Budgets for other
// users or categories are ignored, as is the candidate's own row so the
// check also works for updates.
//
// Returns a *OverlapError naming the first conflicting budget, or nil.
func ValidateNoOverlap(existing []Budget, candidate Budget) error {
	for _, b := range existing {
		if b.UserID != candidate.UserID || b.CategoryID != candidate.CategoryID {
			continue
		}
		if candidate.ID != 0 && b.ID == candidate.ID {
			continue
		}
		if b.Overlaps(candidate) {
			return &OverlapError{
				BudgetID:   b.ID,
				CategoryID: b.CategoryID,
				StartDate:  b.StartDate,
				EndDate:    b.EndDate,
			}
		}
	}
	return nil
}
