package planning

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vechiato/spendsleuth/internal/billing"
)

// Band classifies a per-month difference between group-attributed cost and
// the source table's cost.
type Band int

const (
	// BandAcceptable means the totals agree within tolerance.
	BandAcceptable Band = iota
	// BandOverlap means group filters double-count cost for the month.
	BandOverlap
	// BandGap means group filters miss cost present in the source.
	BandGap
)

// String returns the report label for the band.
func (b Band) String() string {
	switch b {
	case BandOverlap:
		return "overlap"
	case BandGap:
		return "gap"
	default:
		return "acceptable"
	}
}

// Tolerance thresholds for the per-month validation bands. The constants
// are asymmetric and fixed; existing reports depend on these exact values.
var (
	overlapThreshold = decimal.NewFromInt(1)
	gapThreshold     = decimal.NewFromInt(-2)
)

// ClassifyDifference bands a signed difference (group total minus source
// total): above +$1 is overlap, below -$2 is a gap, anything between is an
// acceptable match.
func ClassifyDifference(diff decimal.Decimal) Band {
	switch {
	case diff.GreaterThan(overlapThreshold):
		return BandOverlap
	case diff.LessThan(gapThreshold):
		return BandGap
	default:
		return BandAcceptable
	}
}

// ValidationRow is one month's reconciliation of source cost against the
// sum of group-attributed cost.
type ValidationRow struct {
	Month       string
	SourceTotal decimal.Decimal
	GroupTotal  decimal.Decimal
	Difference  decimal.Decimal
	Band        Band
}

// UncategorizedItem is one (service, resource) cost lump claimed by no
// group.
type UncategorizedItem struct {
	Service  string
	Resource string
	Cost     decimal.Decimal
	Usage    decimal.Decimal
}

// Dataset is the complete planning output for one run.
//
// Groups are not guaranteed disjoint, so CategorizedCost can double-count a
// record matched by two groups; UncategorizedCost then goes negative. The
// validation rows exist to surface exactly that, so the algebraic identity
// CategorizedCost + UncategorizedCost == TotalBillingCost always holds.
type Dataset struct {
	Groups                 []*GroupResult
	AllMonths              []string
	TotalBillingCost       decimal.Decimal
	CategorizedCost        decimal.Decimal
	UncategorizedCost      decimal.Decimal
	CoveragePercent        decimal.Decimal
	UncategorizedBreakdown map[string][]UncategorizedItem
	Validation             []ValidationRow
}

var hundred = decimal.NewFromInt(100)

// buildDataset reconciles resolved groups against the full table.
func buildDataset(table *billing.Table, results []*GroupResult, allMonths []string) *Dataset {
	ds := &Dataset{
		Groups:           results,
		AllMonths:        allMonths,
		TotalBillingCost: table.TotalCost(),
	}

	for _, result := range results {
		ds.CategorizedCost = ds.CategorizedCost.Add(result.TotalActual())
	}
	ds.UncategorizedCost = ds.TotalBillingCost.Sub(ds.CategorizedCost)

	// An empty table counts as fully covered; there is nothing left to
	// categorize.
	if ds.TotalBillingCost.IsZero() {
		ds.CoveragePercent = hundred
	} else {
		ds.CoveragePercent = ds.CategorizedCost.Div(ds.TotalBillingCost).Mul(hundred)
	}

	ds.UncategorizedBreakdown = uncategorizedBreakdown(table, results)
	ds.Validation = validate(table, results, allMonths)
	return ds
}

// uncategorizedBreakdown groups the table rows claimed by no group into
// per-month (service, resource) sums, sorted by cost descending.
func uncategorizedBreakdown(table *billing.Table, results []*GroupResult) map[string][]UncategorizedItem {
	matched := make(map[string]struct{})
	for _, result := range results {
		for i := range result.MatchedRecords {
			matched[result.MatchedRecords[i].RowKey()] = struct{}{}
		}
	}

	type pairKey struct{ month, service, resource string }
	sums := make(map[pairKey]*UncategorizedItem)
	for _, rec := range table.Records() {
		if _, ok := matched[rec.RowKey()]; ok {
			continue
		}
		k := pairKey{rec.BillingMonth, rec.ServiceName, rec.InstanceName}
		item, ok := sums[k]
		if !ok {
			item = &UncategorizedItem{Service: rec.ServiceName, Resource: rec.InstanceName}
			sums[k] = item
		}
		item.Cost = item.Cost.Add(rec.Cost)
		item.Usage = item.Usage.Add(rec.UsageQuantity)
	}

	breakdown := make(map[string][]UncategorizedItem)
	for k, item := range sums {
		breakdown[k.month] = append(breakdown[k.month], *item)
	}
	for month, items := range breakdown {
		sort.Slice(items, func(i, j int) bool {
			if !items[i].Cost.Equal(items[j].Cost) {
				return items[i].Cost.GreaterThan(items[j].Cost)
			}
			if items[i].Service != items[j].Service {
				return items[i].Service < items[j].Service
			}
			return items[i].Resource < items[j].Resource
		})
		breakdown[month] = items
	}
	return breakdown
}

// validate compares, per month, the table's cost against the sum of the
// groups' attributed cost and bands the difference.
func validate(table *billing.Table, results []*GroupResult, allMonths []string) []ValidationRow {
	sourceTotals := table.MonthlyTotals()
	rows := make([]ValidationRow, 0, len(allMonths))
	for _, month := range allMonths {
		groupTotal := decimal.Zero
		for _, result := range results {
			groupTotal = groupTotal.Add(result.ActualCosts[month])
		}
		diff := groupTotal.Sub(sourceTotals[month])
		rows = append(rows, ValidationRow{
			Month:       month,
			SourceTotal: sourceTotals[month],
			GroupTotal:  groupTotal,
			Difference:  diff,
			Band:        ClassifyDifference(diff),
		})
	}
	return rows
}
