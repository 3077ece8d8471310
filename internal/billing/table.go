package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Table is the immutable record set for one run. Filtering never mutates
// it; matched results are new slices over copies of the rows.
type Table struct {
	records []BillingRecord
}

// NewTable builds a table from parsed records. The slice is copied so later
// changes by the caller cannot reach into the table.
func NewTable(records []BillingRecord) *Table {
	copied := make([]BillingRecord, len(records))
	copy(copied, records)
	return &Table{records: copied}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns the underlying rows. Callers must treat the slice as
// read-only.
func (t *Table) Records() []BillingRecord {
	return t.records
}

// Months returns the distinct billing months present, sorted ascending.
// Canonical YYYY-MM keys sort chronologically as plain strings.
func (t *Table) Months() []string {
	seen := make(map[string]struct{})
	for i := range t.records {
		seen[t.records[i].BillingMonth] = struct{}{}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// TotalCost sums Cost over the entire table.
func (t *Table) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range t.records {
		total = total.Add(t.records[i].Cost)
	}
	return total
}

// MonthlyTotals sums Cost per billing month over the entire table.
func (t *Table) MonthlyTotals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for i := range t.records {
		r := &t.records[i]
		totals[r.BillingMonth] = totals[r.BillingMonth].Add(r.Cost)
	}
	return totals
}
