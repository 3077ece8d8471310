package planning

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/query"
)

func planningTable() *billing.Table {
	return billing.NewTable([]billing.BillingRecord{
		{ServiceName: "Kubernetes Service", InstanceName: "prod-cluster", BillingMonth: "2025-01", Cost: decimal.NewFromInt(100), AccountID: "acct-1"},
		{ServiceName: "Cloud Object Storage", InstanceName: "backup-bucket", BillingMonth: "2025-01", Cost: decimal.NewFromInt(50), AccountID: "acct-1"},
		{ServiceName: "Databases for PostgreSQL", InstanceName: "orders-db", BillingMonth: "2025-01", Cost: decimal.NewFromInt(25), AccountID: "acct-1"},
	})
}

func serviceGroup(name, service string, budgets map[string]Budget) Group {
	return Group{
		Name: name,
		Filters: []query.FilterSpec{{
			Logic:    query.LogicAnd,
			Criteria: map[string]query.Criterion{billing.ColServiceName: query.Text(service)},
		}},
		Budgets: budgets,
	}
}

func TestEngineRun(t *testing.T) {
	engine := NewEngine(planningTable(), zerolog.Nop())

	ds := engine.Run([]Group{
		serviceGroup("kubernetes", "Kubernetes Service", map[string]Budget{
			"2025-01": AmountBudget(decimal.NewFromInt(80)),
		}),
		serviceGroup("storage", "Cloud Object Storage", map[string]Budget{
			"2025-02": UnlimitedBudget(),
		}),
	})

	assert.Equal(t, []string{"2025-01", "2025-02"}, ds.AllMonths)
	assert.True(t, ds.TotalBillingCost.Equal(decimal.NewFromInt(175)))
	assert.True(t, ds.CategorizedCost.Equal(decimal.NewFromInt(150)))
	assert.True(t, ds.UncategorizedCost.Equal(decimal.NewFromInt(25)))
	assert.True(t, ds.CategorizedCost.Add(ds.UncategorizedCost).Equal(ds.TotalBillingCost))

	require.Len(t, ds.Groups, 2)

	kube := ds.Groups[0]
	assert.True(t, kube.PlannedCosts["2025-01"].Equal(decimal.NewFromInt(80)))
	assert.True(t, kube.NotPlannedCosts["2025-01"].Equal(decimal.NewFromInt(20)))
	assert.Empty(t, kube.UndefinedMonths)

	// The storage group has cost in a month with no budget declared; it
	// splits as zero-budget and is flagged.
	storage := ds.Groups[1]
	assert.True(t, storage.PlannedCosts["2025-01"].IsZero())
	assert.True(t, storage.NotPlannedCosts["2025-01"].Equal(decimal.NewFromInt(50)))
	assert.Equal(t, []string{"2025-01"}, storage.UndefinedMonths)
}

func TestEngineRunValidationBands(t *testing.T) {
	engine := NewEngine(planningTable(), zerolog.Nop())

	ds := engine.Run([]Group{
		serviceGroup("kubernetes", "Kubernetes Service", map[string]Budget{
			"2025-01": UnlimitedBudget(),
		}),
	})

	require.Len(t, ds.Validation, 1)
	row := ds.Validation[0]
	assert.Equal(t, "2025-01", row.Month)
	assert.True(t, row.SourceTotal.Equal(decimal.NewFromInt(175)))
	assert.True(t, row.GroupTotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, row.Difference.Equal(decimal.NewFromInt(-75)))
	assert.Equal(t, BandGap, row.Band)
}

func TestEngineRunOverlappingGroups(t *testing.T) {
	engine := NewEngine(planningTable(), zerolog.Nop())

	// Two groups claim the same service; the month double-counts and the
	// uncategorized remainder goes negative.
	ds := engine.Run([]Group{
		serviceGroup("kube-a", "Kubernetes Service", map[string]Budget{"2025-01": UnlimitedBudget()}),
		serviceGroup("kube-b", "Kubernetes Service", map[string]Budget{"2025-01": UnlimitedBudget()}),
	})

	assert.True(t, ds.CategorizedCost.Equal(decimal.NewFromInt(200)))
	assert.True(t, ds.UncategorizedCost.Equal(decimal.NewFromInt(-25)))

	require.Len(t, ds.Validation, 1)
	assert.Equal(t, BandOverlap, ds.Validation[0].Band)
}

func TestEngineRunUncategorizedBreakdown(t *testing.T) {
	engine := NewEngine(planningTable(), zerolog.Nop())

	ds := engine.Run([]Group{
		serviceGroup("kubernetes", "Kubernetes Service", map[string]Budget{"2025-01": UnlimitedBudget()}),
	})

	items := ds.UncategorizedBreakdown["2025-01"]
	require.Len(t, items, 2)
	// Sorted by cost descending.
	assert.Equal(t, "Cloud Object Storage", items[0].Service)
	assert.True(t, items[0].Cost.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Databases for PostgreSQL", items[1].Service)
}

func TestEngineRunEmptyTable(t *testing.T) {
	engine := NewEngine(billing.NewTable(nil), zerolog.Nop())

	ds := engine.Run([]Group{
		serviceGroup("kubernetes", "Kubernetes Service", map[string]Budget{"2025-01": UnlimitedBudget()}),
	})

	assert.True(t, ds.TotalBillingCost.IsZero())
	assert.True(t, ds.CoveragePercent.Equal(decimal.NewFromInt(100)), "an empty table counts as fully covered")
}

func TestEngineRunCoveragePercent(t *testing.T) {
	engine := NewEngine(planningTable(), zerolog.Nop())

	ds := engine.Run([]Group{
		serviceGroup("kubernetes", "Kubernetes Service", map[string]Budget{"2025-01": UnlimitedBudget()}),
	})

	// 100 of 175 categorized.
	want := decimal.NewFromInt(100).Div(decimal.NewFromInt(175)).Mul(decimal.NewFromInt(100))
	assert.True(t, ds.CoveragePercent.Equal(want))
}
