package planning

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/query"
)

// Group is one planning group's configuration: a name, the filter specs
// whose union defines its scope, and its resolved per-month budgets. A
// Group is immutable after construction; derived values live on
// GroupResult so re-running a dataset is idempotent.
type Group struct {
	Name    string
	Filters []query.FilterSpec
	Budgets map[string]Budget
}

// GroupResult carries the values derived for one group in one run.
type GroupResult struct {
	Name            string
	ActualCosts     map[string]decimal.Decimal
	PlannedCosts    map[string]decimal.Decimal
	NotPlannedCosts map[string]decimal.Decimal
	// MatchedRecords is the group's final matched record set, used for
	// uncategorized-cost detection and ad-hoc inspection.
	MatchedRecords []billing.BillingRecord
	// UndefinedMonths lists months that carry actual cost but have no
	// budget declaration; they split as zero-budget and should be added to
	// the planning config.
	UndefinedMonths []string
}

// TotalActual sums the group's actual cost across months.
func (r *GroupResult) TotalActual() decimal.Decimal {
	return sumValues(r.ActualCosts)
}

// TotalPlanned sums the group's planned cost across months.
func (r *GroupResult) TotalPlanned() decimal.Decimal {
	return sumValues(r.PlannedCosts)
}

// TotalNotPlanned sums the group's not-planned cost across months.
func (r *GroupResult) TotalNotPlanned() decimal.Decimal {
	return sumValues(r.NotPlannedCosts)
}

func sumValues(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// resolve computes a group's derived values from its matched records.
func (g *Group) resolve(matched []billing.BillingRecord) *GroupResult {
	result := &GroupResult{
		Name:            g.Name,
		ActualCosts:     query.MonthlyCosts(matched),
		PlannedCosts:    make(map[string]decimal.Decimal),
		NotPlannedCosts: make(map[string]decimal.Decimal),
		MatchedRecords:  matched,
	}
	for month, actual := range result.ActualCosts {
		budget, declared := g.Budgets[month]
		if !declared {
			budget = ZeroBudget()
			if actual.IsPositive() {
				result.UndefinedMonths = append(result.UndefinedMonths, month)
			}
		}
		planned, notPlanned := Split(actual, budget)
		result.PlannedCosts[month] = planned
		result.NotPlannedCosts[month] = notPlanned
	}
	sort.Strings(result.UndefinedMonths)
	return result
}
