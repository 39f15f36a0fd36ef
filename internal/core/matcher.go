package core

// MatchExpenses selects the subset of expenses that count toward the given
// budget: active, same category, and dated inside the budget period with
// both endpoints inclusive. Open-ended budgets accept any expense on or
// after the start date.
//
// The function is pure; the input slice is never mutated. Every call site
// that needs budget consumption must go through this single predicate so
// soft-deleted expenses are excluded everywhere consistently.
func MatchExpenses(expenses []Expense, budget Budget) []Expense {
	matched := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Active {
			continue
		}
		if e.CategoryID != budget.CategoryID {
			continue
		}
		if e.Date.IsZero() || !budget.Contains(e.Date) {
			continue
		}
		matched = append(matched, e)
	}
	return matched
}
