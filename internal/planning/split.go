package planning

import "github.com/shopspring/decimal"

// Split divides one month's actual cost into the portion covered by the
// budget and the portion beyond it. It is a pure function of its inputs,
// and planned + notPlanned always equals actual.
func Split(actual decimal.Decimal, budget Budget) (planned, notPlanned decimal.Decimal) {
	switch budget.Kind() {
	case BudgetUnlimited:
		return actual, decimal.Zero
	case BudgetAmount:
		if actual.LessThanOrEqual(budget.Amount()) {
			return actual, decimal.Zero
		}
		return budget.Amount(), actual.Sub(budget.Amount())
	default:
		return decimal.Zero, actual
	}
}
