package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(service, instance, month string, cost float64) BillingRecord {
	return BillingRecord{
		ServiceName:  service,
		InstanceName: instance,
		BillingMonth: month,
		Cost:         decimal.NewFromFloat(cost),
		AccountID:    "acct-1",
		Region:       "us-south",
	}
}

func TestRowKeyEquality(t *testing.T) {
	a := rec("Kubernetes Service", "prod", "2025-01", 100)
	b := rec("Kubernetes Service", "prod", "2025-01", 100)
	assert.Equal(t, a.RowKey(), b.RowKey())

	c := rec("Kubernetes Service", "prod", "2025-02", 100)
	assert.NotEqual(t, a.RowKey(), c.RowKey())

	d := a
	d.Region = "eu-de"
	assert.NotEqual(t, a.RowKey(), d.RowKey(), "row key covers every field")
}

func TestValueKeyIgnoresNonIdentityFields(t *testing.T) {
	a := rec("Kubernetes Service", "prod", "2025-01", 100)
	b := a
	b.Region = "eu-de"
	b.PlanName = "Premium"
	assert.Equal(t, a.ValueKey(), b.ValueKey(), "value key is the account/month/service/instance/cost tuple")

	c := a
	c.Cost = decimal.NewFromFloat(100.01)
	assert.NotEqual(t, a.ValueKey(), c.ValueKey())
}

func TestResolveColumn(t *testing.T) {
	col, ok := ResolveColumn(ColCost)
	require.True(t, ok)
	assert.Equal(t, ColumnNumeric, col.Kind)

	col, ok = ResolveColumn(ColServiceName)
	require.True(t, ok)
	assert.Equal(t, ColumnText, col.Kind)

	_, ok = ResolveColumn("No Such Column")
	assert.False(t, ok)
}

func TestTableAggregates(t *testing.T) {
	table := NewTable([]BillingRecord{
		rec("A", "a1", "2025-01", 10),
		rec("A", "a2", "2025-02", 20),
		rec("B", "b1", "2025-01", 5),
	})

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"2025-01", "2025-02"}, table.Months())
	assert.True(t, table.TotalCost().Equal(decimal.NewFromInt(35)))

	totals := table.MonthlyTotals()
	assert.True(t, totals["2025-01"].Equal(decimal.NewFromInt(15)))
	assert.True(t, totals["2025-02"].Equal(decimal.NewFromInt(20)))
}

func TestNewTableCopiesInput(t *testing.T) {
	src := []BillingRecord{rec("A", "a1", "2025-01", 10)}
	table := NewTable(src)
	src[0].ServiceName = "mutated"
	assert.Equal(t, "A", table.Records()[0].ServiceName)
}
