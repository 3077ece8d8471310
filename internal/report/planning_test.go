package report

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/planning"
	"github.com/vechiato/spendsleuth/internal/query"
)

func planningFixture(t *testing.T) ([]planning.Group, *planning.Dataset) {
	t.Helper()
	table := billing.NewTable([]billing.BillingRecord{
		{ServiceName: "Kubernetes Service", InstanceName: "prod-cluster", BillingMonth: "2025-01", Cost: decimal.NewFromInt(150), AccountID: "acct-1"},
		{ServiceName: "Cloud Object Storage", InstanceName: "backup-bucket", BillingMonth: "2025-01", Cost: decimal.NewFromInt(30), AccountID: "acct-1"},
	})
	groups := []planning.Group{
		{
			Name: "kubernetes",
			Filters: []query.FilterSpec{{
				Logic:    query.LogicAnd,
				Criteria: map[string]query.Criterion{billing.ColServiceName: query.Text("Kubernetes Service")},
			}},
			Budgets: map[string]planning.Budget{
				"2025-01": planning.AmountBudget(decimal.NewFromInt(100)),
				"2025-02": planning.UnlimitedBudget(),
			},
		},
	}
	return groups, planning.NewEngine(table, zerolog.Nop()).Run(groups)
}

func TestBuildPlanningReport(t *testing.T) {
	groups, ds := planningFixture(t)
	r := BuildPlanningReport(groups, ds)

	assert.Equal(t, []string{"Jan-25", "Feb-25"}, r.Months)
	assert.Equal(t, "180.00", r.TotalBillingCost)
	assert.Equal(t, "150.00", r.CategorizedCost)
	assert.Equal(t, "30.00", r.UncategorizedCost)

	require.Len(t, r.Groups, 1)
	g := r.Groups[0]
	assert.Equal(t, "kubernetes", g.Name)
	assert.Equal(t, "150.00", g.ActualCosts["Jan-25"])
	assert.Equal(t, "100.00", g.PlannedCosts["Jan-25"])
	assert.Equal(t, "50.00", g.NotPlannedCosts["Jan-25"])

	require.Len(t, r.Validation, 2)
	assert.Equal(t, "Jan-25", r.Validation[0].Month)
	assert.Equal(t, "gap", r.Validation[0].Band, "storage cost is unclaimed")

	require.Len(t, r.Uncategorized, 1)
	assert.Equal(t, "Cloud Object Storage", r.Uncategorized[0].Service)
	assert.Equal(t, "30.00", r.Uncategorized[0].Cost)
}

func TestBuildPlanningReportVariance(t *testing.T) {
	groups, ds := planningFixture(t)
	r := BuildPlanningReport(groups, ds)

	require.Len(t, r.BudgetVariance, 2)

	jan := r.BudgetVariance[0]
	assert.Equal(t, "Jan-25", jan.Month)
	assert.Equal(t, "100", jan.Budget)
	assert.Equal(t, "150.00", jan.Actual)
	assert.Equal(t, "50.00", jan.Variance)
	assert.Equal(t, "50.0", jan.VariancePercent)
	assert.Equal(t, StatusOverBudget, jan.Status)

	feb := r.BudgetVariance[1]
	assert.Equal(t, "Feb-25", feb.Month)
	assert.Equal(t, "unlimited", feb.Budget)
	assert.Equal(t, StatusPlanned, feb.Status)
}

func TestVarianceRowStatuses(t *testing.T) {
	within := varianceRow("g", "2025-01", planning.AmountBudget(decimal.NewFromInt(100)), decimal.NewFromInt(80))
	assert.Equal(t, StatusWithinBudget, within.Status)
	assert.Equal(t, "-20.00", within.Variance)

	notPlanned := varianceRow("g", "2025-01", planning.ZeroBudget(), decimal.NewFromInt(80))
	assert.Equal(t, StatusNotPlanned, notPlanned.Status)
	assert.Empty(t, notPlanned.Variance)
}
