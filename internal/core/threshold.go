package core

const (
	// EventNearLimit fires when an expense pushes consumption from below
	// 90% into the [90%, 100%) band.
	EventNearLimit EventKind = "near_limit"
	// EventExceeded fires when an expense pushes consumption from below
	// 100% to 100% or beyond.
	EventExceeded EventKind = "exceeded"
)

// EventKind identifies which budget threshold was crossed.
type EventKind string

// NotificationEvent describes a threshold crossing caused by a single
// expense insertion. Amount is the remaining budget for a near-limit
// event, and the excess over the ceiling for an exceeded event.
//
// The event only states that a notification is due; rendering and
// delivering it is the notifier collaborator's job.
type NotificationEvent struct {
	Kind         EventKind
	CategoryName string
	BudgetAmount Money
	Amount       Money
}

// EvaluateThresholdCrossing decides whether inserting one new expense into
// a budget period crosses the 90% or 100% threshold. spentBefore is the
// matched total before the insertion; the caller must have pre-filtered
// via MatchExpenses so the new expense actually belongs to the period.
//
// Each threshold fires at most once per crossing: a budget already at or
// past 90% produces no near-limit event for further expenses, and one
// already past 100% produces nothing at all. A single expense that jumps
// from below 90% straight past 100% emits only the exceeded event.
//
// Returns nil when no threshold was crossed.
func EvaluateThresholdCrossing(budget Budget, categoryName string, spentBefore, newAmount Money) *NotificationEvent {
	if budget.Amount.Cents <= 0 {
		return nil
	}

	spentAfter := spentBefore.Add(newAmount)
	pctBefore := percentOf(spentBefore, budget.Amount)
	pctAfter := percentOf(spentAfter, budget.Amount)

	switch {
	case pctBefore < NearLimitPercent && pctAfter >= NearLimitPercent && pctAfter < 100:
		return &NotificationEvent{
			Kind:         EventNearLimit,
			CategoryName: categoryName,
			BudgetAmount: budget.Amount,
			Amount:       budget.Amount.Sub(spentAfter),
		}
	case pctBefore < 100 && pctAfter >= 100:
		return &NotificationEvent{
			Kind:         EventExceeded,
			CategoryName: categoryName,
			BudgetAmount: budget.Amount,
			Amount:       spentAfter.Sub(budget.Amount),
		}
	}
	return nil
}

func percentOf(spent, total Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(spent.Cents) / float64(total.Cents) * 100
}
