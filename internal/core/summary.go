package core

// CategoryTotal is the aggregate of expenses sharing one category.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"totalCents"`
	Count    int    `json:"count"`
}

// BudgetStatus reports spending against the budget for one category.
// Budget is nil when the category has no budget; the numeric fields are then zero.
type BudgetStatus struct {
	Budget     *Budget `json:"budget,omitempty"`
	Spent      Money   `json:"spentCents"`
	Remaining  Money   `json:"remainingCents"`
	Percentage float64 `json:"percentage"`
}

// NewBudgetStatus computes remaining and a percentage capped at 100.
func NewBudgetStatus(b Budget, spent Money) BudgetStatus {
	pct := 0.0
	if b.Limit.Cents > 0 {
		pct = float64(spent.Cents) / float64(b.Limit.Cents) * 100
	}
	if pct > 100 {
		pct = 100
	}
	return BudgetStatus{
		Budget:     &b,
		Spent:      spent,
		Remaining:  b.Limit.Sub(spent),
		Percentage: pct,
	}
}
