// Package planning turns group declarations and per-period budgets into
// planned/not-planned cost splits and whole-table coverage reconciliation.
package planning

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BudgetKind tags the three budget variants.
type BudgetKind int

const (
	// BudgetZero caps planned cost at zero; all actual cost is not-planned.
	BudgetZero BudgetKind = iota
	// BudgetUnlimited places no cap; all actual cost is planned.
	BudgetUnlimited
	// BudgetAmount caps planned cost at a fixed monthly amount.
	BudgetAmount
)

// Budget is a resolved monthly budget. The legacy string sentinels from the
// config ("planned", "not_planned") are folded into the kind at parse time
// and never re-inspected downstream.
type Budget struct {
	kind   BudgetKind
	amount decimal.Decimal
}

// ZeroBudget returns the zero-cap budget.
func ZeroBudget() Budget {
	return Budget{kind: BudgetZero}
}

// UnlimitedBudget returns the uncapped budget.
func UnlimitedBudget() Budget {
	return Budget{kind: BudgetUnlimited}
}

// AmountBudget returns a fixed monthly budget.
func AmountBudget(amount decimal.Decimal) Budget {
	return Budget{kind: BudgetAmount, amount: amount}
}

// Kind returns the budget variant.
func (b Budget) Kind() BudgetKind {
	return b.kind
}

// Amount returns the cap of a BudgetAmount budget; zero otherwise.
func (b Budget) Amount() decimal.Decimal {
	return b.amount
}

// String renders the budget for reports and logs.
func (b Budget) String() string {
	switch b.kind {
	case BudgetUnlimited:
		return "unlimited"
	case BudgetAmount:
		return b.amount.String()
	default:
		return "0"
	}
}

// Sentinel amount values accepted in place of a number.
const (
	sentinelPlanned    = "planned"
	sentinelNotPlanned = "not_planned"
)

// PeriodDecl is one raw months-section entry: a period token and either a
// numeric amount or a sentinel string. Declarations keep their config order
// because overlapping period expansions resolve last-write-wins.
type PeriodDecl struct {
	Period   string
	Amount   decimal.Decimal
	Raw      string
	IsNumber bool
}

// IsMultiPeriod reports whether token names a quarter, half-year, or annual
// period rather than a single month.
func IsMultiPeriod(token string) bool {
	switch {
	case strings.HasPrefix(token, "Q1-"), strings.HasPrefix(token, "Q2-"),
		strings.HasPrefix(token, "Q3-"), strings.HasPrefix(token, "Q4-"),
		strings.HasPrefix(token, "H1-"), strings.HasPrefix(token, "H2-"),
		strings.HasPrefix(token, "Annual-"), strings.HasPrefix(token, "Year-"):
		return true
	}
	return false
}

// PeriodMonths expands a period token into canonical YYYY-MM month keys.
// Quarters yield 3 months, half-years 6, annual tokens 12. Anything else is
// a single-month token and passes through unchanged.
func PeriodMonths(token string) []string {
	prefix, year, ok := splitPeriod(token)
	if !ok {
		return []string{token}
	}
	var first, count int
	switch prefix {
	case "Q1":
		first, count = 1, 3
	case "Q2":
		first, count = 4, 3
	case "Q3":
		first, count = 7, 3
	case "Q4":
		first, count = 10, 3
	case "H1":
		first, count = 1, 6
	case "H2":
		first, count = 7, 6
	case "Annual", "Year":
		first, count = 1, 12
	default:
		return []string{token}
	}
	months := make([]string, 0, count)
	for m := first; m < first+count; m++ {
		months = append(months, fmt.Sprintf("%s-%02d", year, m))
	}
	return months
}

// splitPeriod separates a multi-period token into its family prefix and a
// four-digit year. Two-digit years are 20xx.
func splitPeriod(token string) (prefix, year string, ok bool) {
	if !IsMultiPeriod(token) {
		return "", "", false
	}
	i := strings.LastIndex(token, "-")
	prefix, year = token[:i], token[i+1:]
	switch len(year) {
	case 2:
		return prefix, "20" + year, true
	case 4:
		return prefix, year, true
	}
	return "", "", false
}

// ExpandBudgets resolves ordered period declarations into per-month
// budgets. Multi-month amounts divide evenly across the expanded months.
// Sentinel values map to the unlimited and zero budgets; anything else is
// an unrecognized declaration and degrades to a zero budget with a
// diagnostic, so unknown configuration surfaces as not-planned cost rather
// than disappearing. A month declared twice keeps the later declaration.
func ExpandBudgets(decls []PeriodDecl, logger zerolog.Logger) map[string]Budget {
	budgets := make(map[string]Budget)
	for _, decl := range decls {
		months := PeriodMonths(decl.Period)
		var budget Budget
		switch {
		case decl.IsNumber:
			amount := decl.Amount
			if len(months) > 1 {
				amount = amount.Div(decimal.NewFromInt(int64(len(months))))
			}
			budget = AmountBudget(amount)
		case strings.EqualFold(decl.Raw, sentinelPlanned):
			budget = UnlimitedBudget()
		case strings.EqualFold(decl.Raw, sentinelNotPlanned):
			budget = ZeroBudget()
		default:
			logger.Warn().
				Str("period", decl.Period).
				Str("value", decl.Raw).
				Msg("unrecognized budget declaration; treating as zero budget")
			budget = ZeroBudget()
		}
		for _, month := range months {
			budgets[month] = budget
		}
	}
	return budgets
}
