package core

import "github.com/shopspring/decimal"

var half = decimal.NewFromFloat(0.5)

// DeriveBudgetStatus classifies budget execution. Overspent wins over
// Underutilized; a zero allocation with zero spending is OnTarget.
func DeriveBudgetStatus(allocated, spent decimal.Decimal) BudgetStatus {
	switch {
	case spent.GreaterThan(allocated):
		return Overspent
	case spent.LessThan(allocated.Mul(half)):
		return Underutilized
	default:
		return OnTarget
	}
}

// Highlight is the display hint attached to a status in listings.
func (s BudgetStatus) Highlight() string {
	switch s {
	case Overspent:
		return "danger"
	case Underutilized:
		return "warning"
	}
	return ""
}

// WithDerivedStatus returns a copy of b whose status matches its amounts.
func (b Budget) WithDerivedStatus() Budget {
	b.Status = DeriveBudgetStatus(b.Allocated, b.Spent)
	return b
}
