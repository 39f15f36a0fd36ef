package core

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

// Scenario: budget 200, expenses 50+60 inside the period.
func TestComputeConsumptionUnder(t *testing.T) {
	b := foodBudget()
	matched := []Expense{
		{CategoryID: 3, Amount: Money{Cents: 5000}, Date: NewDate(2025, 1, 5), Active: true},
		{CategoryID: 3, Amount: Money{Cents: 6000}, Date: NewDate(2025, 1, 20), Active: true},
	}
	c := ComputeConsumption(matched, b)
	if c.Spent.Cents != 11000 {
		t.Fatalf("spent = %d, want 11000", c.Spent.Cents)
	}
	if c.Remaining.Cents != 9000 {
		t.Fatalf("remaining = %d, want 9000", c.Remaining.Cents)
	}
	if !almostEqual(c.Percentage, 55) {
		t.Fatalf("percentage = %f, want 55", c.Percentage)
	}
	if c.Status != StatusUnder {
		t.Fatalf("status = %s, want under", c.Status)
	}
}

func TestComputeConsumptionNear(t *testing.T) {
	b := foodBudget()
	matched := []Expense{{Amount: Money{Cents: 18000}}}
	c := ComputeConsumption(matched, b)
	if c.Status != StatusNear {
		t.Fatalf("status at exactly 90%% = %s, want near", c.Status)
	}
	// Spent exactly at the ceiling is still Near, not Over.
	c = ComputeConsumption([]Expense{{Amount: Money{Cents: 20000}}}, b)
	if c.Status != StatusNear {
		t.Fatalf("status at exactly 100%% = %s, want near", c.Status)
	}
}

func TestComputeConsumptionOver(t *testing.T) {
	b := foodBudget()
	c := ComputeConsumption([]Expense{{Amount: Money{Cents: 31000}}}, b)
	if c.Status != StatusOver {
		t.Fatalf("status = %s, want over", c.Status)
	}
	if c.Remaining.Cents != -11000 {
		t.Fatalf("remaining = %d, want -11000", c.Remaining.Cents)
	}
	if !almostEqual(c.Percentage, 155) {
		t.Fatalf("percentage = %f, want 155 (unclamped)", c.Percentage)
	}
	if !almostEqual(c.DisplayPercentage(), 100) {
		t.Fatalf("display percentage = %f, want clamped 100", c.DisplayPercentage())
	}
}

// Spent amounts over disjoint expense sets are additive.
func TestComputeConsumptionAdditivity(t *testing.T) {
	b := foodBudget()
	setA := []Expense{{Amount: Money{Cents: 3000}}, {Amount: Money{Cents: 4500}}}
	setB := []Expense{{Amount: Money{Cents: 2500}}}
	union := append(append([]Expense{}, setA...), setB...)

	cA := ComputeConsumption(setA, b)
	cB := ComputeConsumption(setB, b)
	cU := ComputeConsumption(union, b)
	if cU.Spent.Cents != cA.Spent.Cents+cB.Spent.Cents {
		t.Fatalf("union spent %d != %d + %d", cU.Spent.Cents, cA.Spent.Cents, cB.Spent.Cents)
	}
}

// Increasing a matched amount never moves status back toward Under.
func TestComputeConsumptionStatusMonotonicity(t *testing.T) {
	b := foodBudget()
	rank := map[Status]int{StatusUnder: 0, StatusNear: 1, StatusOver: 2}

	prev := StatusUnder
	for cents := int64(0); cents <= 25000; cents += 500 {
		c := ComputeConsumption([]Expense{{Amount: Money{Cents: cents}}}, b)
		if rank[c.Status] < rank[prev] {
			t.Fatalf("status regressed from %s to %s at %d cents", prev, c.Status, cents)
		}
		prev = c.Status
	}
}

func TestComputeConsumptionZeroBudgetAmount(t *testing.T) {
	b := foodBudget()
	b.Amount = Money{}
	c := ComputeConsumption([]Expense{{Amount: Money{Cents: 100}}}, b)
	if c.Percentage != 0 {
		t.Fatalf("percentage with zero budget = %f, want 0", c.Percentage)
	}
	if c.Status != StatusOver {
		t.Fatalf("any spend against a zero budget is over, got %s", c.Status)
	}
}

func TestComputeConsumptionEmpty(t *testing.T) {
	b := foodBudget()
	c := ComputeConsumption(nil, b)
	if c.Spent.Cents != 0 || c.Remaining.Cents != 20000 || c.Status != StatusUnder {
		t.Fatalf("unexpected consumption for no expenses: %+v", c)
	}
}
