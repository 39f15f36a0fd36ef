package core

const (
	StatusUnder Status = "under"
	StatusNear  Status = "near"
	StatusOver  Status = "over"
)

// NearLimitPercent is the consumption percentage at which a budget is
// considered nearly exhausted.
const NearLimitPercent = 90.0

// Status classifies how much of a budget has been consumed.
type Status string

// Consumption summarizes how far a budget has been spent.
//
// Percentage is intentionally unclamped so an exceeded budget reports how
// far past the ceiling it went; use DisplayPercentage for rendering.
type Consumption struct {
	Spent      Money
	Remaining  Money
	Percentage float64
	Status     Status
}

// ComputeConsumption sums the matched expenses against the budget amount
// and classifies the result. Callers are expected to have filtered the
// expenses through MatchExpenses first.
//
// A non-positive budget amount violates the creation invariant and should
// not occur; if it does, the percentage is reported as 0 instead of
// dividing by zero, and the caller is expected to log a data-integrity
// warning.
func ComputeConsumption(matched []Expense, budget Budget) Consumption {
	var spent Money
	for _, e := range matched {
		spent = spent.Add(e.Amount)
	}

	c := Consumption{
		Spent:     spent,
		Remaining: budget.Amount.Sub(spent),
	}
	if budget.Amount.Cents > 0 {
		c.Percentage = float64(spent.Cents) / float64(budget.Amount.Cents) * 100
	}

	switch {
	case spent.Cents > budget.Amount.Cents:
		c.Status = StatusOver
	case c.Percentage >= NearLimitPercent:
		c.Status = StatusNear
	default:
		c.Status = StatusUnder
	}
	return c
}

// DisplayPercentage clamps the consumption percentage to [0, 100] for
// progress-bar style rendering.
func (c Consumption) DisplayPercentage() float64 {
	if c.Percentage < 0 {
		return 0
	}
	if c.Percentage > 100 {
		return 100
	}
	return c.Percentage
}
