package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vechiato/spendsleuth/internal/planning"
)

// PlanningReport is the JSON shape handed to reporting consumers for one
// planning run. All money fields are fixed-point strings and all months are
// display labels.
type PlanningReport struct {
	Months            []string            `json:"months"`
	Groups            []GroupReport       `json:"groups"`
	TotalBillingCost  string              `json:"total_billing_cost"`
	CategorizedCost   string              `json:"categorized_cost"`
	UncategorizedCost string              `json:"uncategorized_cost"`
	CoveragePercent   string              `json:"coverage_percent"`
	Validation        []ValidationReport  `json:"validation"`
	Uncategorized     []UncategorizedLine `json:"uncategorized,omitempty"`
	BudgetVariance    []VarianceReport    `json:"budget_variance,omitempty"`
}

// GroupReport is one group's planned/not-planned breakdown.
type GroupReport struct {
	Name            string            `json:"name"`
	ActualCosts     map[string]string `json:"actual_costs"`
	PlannedCosts    map[string]string `json:"planned_costs"`
	NotPlannedCosts map[string]string `json:"not_planned_costs"`
	TotalActual     string            `json:"total_actual"`
	TotalPlanned    string            `json:"total_planned"`
	TotalNotPlanned string            `json:"total_not_planned"`
	UndefinedMonths []string          `json:"undefined_months,omitempty"`
}

// ValidationReport is one month's reconciliation row.
type ValidationReport struct {
	Month       string `json:"month"`
	SourceTotal string `json:"total_from_source"`
	GroupTotal  string `json:"total_from_groups"`
	Difference  string `json:"difference"`
	Band        string `json:"band"`
}

// UncategorizedLine is one uncategorized (service, resource) sum.
type UncategorizedLine struct {
	Month    string `json:"month"`
	Service  string `json:"service"`
	Resource string `json:"resource"`
	Cost     string `json:"cost"`
	Usage    string `json:"usage"`
}

// Budget status labels for the variance rows.
const (
	StatusPlanned      = "Planned"
	StatusNotPlanned   = "Not Planned"
	StatusWithinBudget = "Within Budget"
	StatusOverBudget   = "Over Budget"
)

// VarianceReport is one group/month budget-versus-actual row.
type VarianceReport struct {
	Group           string `json:"group"`
	Month           string `json:"month"`
	Budget          string `json:"budget"`
	Actual          string `json:"actual"`
	Variance        string `json:"variance,omitempty"`
	VariancePercent string `json:"variance_percent,omitempty"`
	Status          string `json:"status"`
}

// BuildPlanningReport converts a planning run into its reporting shape.
// Groups supply the budget configuration the dataset's results were split
// against.
func BuildPlanningReport(groups []planning.Group, ds *planning.Dataset) *PlanningReport {
	out := &PlanningReport{
		TotalBillingCost:  ds.TotalBillingCost.StringFixed(2),
		CategorizedCost:   ds.CategorizedCost.StringFixed(2),
		UncategorizedCost: ds.UncategorizedCost.StringFixed(2),
		CoveragePercent:   ds.CoveragePercent.StringFixed(1),
	}
	for _, month := range ds.AllMonths {
		out.Months = append(out.Months, DisplayMonth(month))
	}

	for _, result := range ds.Groups {
		out.Groups = append(out.Groups, GroupReport{
			Name:            result.Name,
			ActualCosts:     displayCosts(result.ActualCosts),
			PlannedCosts:    displayCosts(result.PlannedCosts),
			NotPlannedCosts: displayCosts(result.NotPlannedCosts),
			TotalActual:     result.TotalActual().StringFixed(2),
			TotalPlanned:    result.TotalPlanned().StringFixed(2),
			TotalNotPlanned: result.TotalNotPlanned().StringFixed(2),
			UndefinedMonths: displayMonths(result.UndefinedMonths),
		})
	}

	for _, row := range ds.Validation {
		out.Validation = append(out.Validation, ValidationReport{
			Month:       DisplayMonth(row.Month),
			SourceTotal: row.SourceTotal.StringFixed(2),
			GroupTotal:  row.GroupTotal.StringFixed(2),
			Difference:  row.Difference.StringFixed(2),
			Band:        row.Band.String(),
		})
	}

	months := make([]string, 0, len(ds.UncategorizedBreakdown))
	for month := range ds.UncategorizedBreakdown {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		for _, item := range ds.UncategorizedBreakdown[month] {
			out.Uncategorized = append(out.Uncategorized, UncategorizedLine{
				Month:    DisplayMonth(month),
				Service:  item.Service,
				Resource: item.Resource,
				Cost:     item.Cost.StringFixed(2),
				Usage:    item.Usage.StringFixed(2),
			})
		}
	}

	out.BudgetVariance = varianceRows(groups, ds)
	return out
}

// varianceRows builds the per-group, per-month budget variance rows for
// months that carry either a budget or actual cost.
func varianceRows(groups []planning.Group, ds *planning.Dataset) []VarianceReport {
	resultsByName := make(map[string]map[string]decimal.Decimal, len(ds.Groups))
	for _, result := range ds.Groups {
		resultsByName[result.Name] = result.ActualCosts
	}

	var rows []VarianceReport
	for _, g := range groups {
		actuals := resultsByName[g.Name]
		for _, month := range ds.AllMonths {
			budget, hasBudget := g.Budgets[month]
			actual, hasActual := actuals[month]
			if !hasBudget && !hasActual {
				continue
			}
			rows = append(rows, varianceRow(g.Name, month, budget, actual))
		}
	}
	return rows
}

func varianceRow(group, month string, budget planning.Budget, actual decimal.Decimal) VarianceReport {
	row := VarianceReport{
		Group:  group,
		Month:  DisplayMonth(month),
		Budget: budget.String(),
		Actual: actual.StringFixed(2),
	}
	switch budget.Kind() {
	case planning.BudgetUnlimited:
		row.Status = StatusPlanned
	case planning.BudgetZero:
		row.Status = StatusNotPlanned
	default:
		variance := actual.Sub(budget.Amount())
		row.Variance = variance.StringFixed(2)
		if !budget.Amount().IsZero() {
			row.VariancePercent = variance.Div(budget.Amount()).Mul(decimal.NewFromInt(100)).StringFixed(1)
		}
		if actual.LessThanOrEqual(budget.Amount()) {
			row.Status = StatusWithinBudget
		} else {
			row.Status = StatusOverBudget
		}
	}
	return row
}

func displayCosts(costs map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(costs))
	for month, cost := range costs {
		out[DisplayMonth(month)] = cost.StringFixed(2)
	}
	return out
}

func displayMonths(months []string) []string {
	if len(months) == 0 {
		return nil
	}
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = DisplayMonth(m)
	}
	return out
}
