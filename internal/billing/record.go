// Package billing holds the in-memory billing record table that the query
// and planning engines operate on. Records are loaded once per run and the
// table is treated as read-only afterwards.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BillingRecord is one billed resource-month row. BillingMonth uses the
// canonical YYYY-MM form; display labels such as "Jan-25" belong to the
// report layer.
type BillingRecord struct {
	ServiceName    string
	InstanceName   string
	BillingMonth   string
	Cost           decimal.Decimal
	OriginalCost   decimal.Decimal
	UsageQuantity  decimal.Decimal
	Region         string
	PlanName       string
	AccountID      string
	IsPartialMonth bool
}

// Column names as they appear in billing exports and filter criteria.
const (
	ColServiceName   = "Service Name"
	ColInstanceName  = "Instance Name"
	ColBillingMonth  = "Billing Month"
	ColCost          = "Cost"
	ColOriginalCost  = "Original Cost"
	ColUsageQuantity = "Usage Quantity"
	ColRegion        = "Region"
	ColPlanName      = "Plan Name"
	ColAccountID     = "Account ID"
)

// ColumnKind tags a column as numeric or text. The kind is resolved once
// here, so matching dispatches on the tag instead of inspecting values.
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnNumeric
)

// Column describes one schema column: its kind plus typed accessors.
type Column struct {
	Name string
	Kind ColumnKind
	Text func(*BillingRecord) string
	Num  func(*BillingRecord) decimal.Decimal
}

var schema = map[string]Column{
	ColServiceName: {
		Name: ColServiceName,
		Kind: ColumnText,
		Text: func(r *BillingRecord) string { return r.ServiceName },
	},
	ColInstanceName: {
		Name: ColInstanceName,
		Kind: ColumnText,
		Text: func(r *BillingRecord) string { return r.InstanceName },
	},
	ColBillingMonth: {
		Name: ColBillingMonth,
		Kind: ColumnText,
		Text: func(r *BillingRecord) string { return r.BillingMonth },
	},
	ColRegion: {
		Name: ColRegion,
		Kind: ColumnText,
		Text: func(r *BillingRecord) string { return r.Region },
	},
	ColPlanName: {
		Name: ColPlanName,
		Kind: ColumnText,
		Text: func(r *BillingRecord) string { return r.PlanName },
	},
	ColAccountID: {
		Name: ColAccountID,
		Kind: ColumnText,
		Text: func(r *BillingRecord) string { return r.AccountID },
	},
	ColCost: {
		Name: ColCost,
		Kind: ColumnNumeric,
		Num:  func(r *BillingRecord) decimal.Decimal { return r.Cost },
	},
	ColOriginalCost: {
		Name: ColOriginalCost,
		Kind: ColumnNumeric,
		Num:  func(r *BillingRecord) decimal.Decimal { return r.OriginalCost },
	},
	ColUsageQuantity: {
		Name: ColUsageQuantity,
		Kind: ColumnNumeric,
		Num:  func(r *BillingRecord) decimal.Decimal { return r.UsageQuantity },
	},
}

// ResolveColumn looks up a column by its export name. The second return is
// false for columns absent from the schema.
func ResolveColumn(name string) (Column, bool) {
	col, ok := schema[name]
	return col, ok
}

// ColumnNames returns the schema column names, for diagnostics.
func ColumnNames() []string {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	return names
}

const keySep = "\x1f"

// RowKey identifies a record by full-row value equality. Two records with
// identical field values share a key regardless of their position in the
// table; union dedup relies on this.
func (r *BillingRecord) RowKey() string {
	return strings.Join([]string{
		r.AccountID,
		r.BillingMonth,
		r.ServiceName,
		r.InstanceName,
		r.Region,
		r.PlanName,
		r.Cost.String(),
		r.OriginalCost.String(),
		r.UsageQuantity.String(),
	}, keySep)
}

// ValueKey identifies a record by the (account, month, service, instance,
// cost) tuple. Exclusion sets are subtracted by this key, never by row
// position, because include and exclude sets may come from different
// intermediate slices.
func (r *BillingRecord) ValueKey() string {
	return strings.Join([]string{
		r.AccountID,
		r.BillingMonth,
		r.ServiceName,
		r.InstanceName,
		r.Cost.String(),
	}, keySep)
}
