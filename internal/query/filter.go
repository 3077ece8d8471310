package query

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vechiato/spendsleuth/internal/billing"
)

// Logic selects how a spec's column criteria combine.
type Logic int

const (
	LogicAnd Logic = iota
	LogicOr
)

// String returns the config token for the logic mode.
func (l Logic) String() string {
	if l == LogicOr {
		return "or"
	}
	return "and"
}

// FilterSpec is one query over the billing table: a criterion per column,
// the combining logic, and whether the spec selects rows to exclude.
//
// An empty criteria map matches the entire table under both AND and OR.
// The OR case is deliberate: no criteria means no restriction, not an empty
// union.
type FilterSpec struct {
	Criteria map[string]Criterion
	Logic    Logic
	Exclude  bool
}

// Evaluator runs filter specs against a fixed table. It holds no mutable
// state beyond the logger; evaluation of identical specs is deterministic.
type Evaluator struct {
	table  *billing.Table
	logger zerolog.Logger
}

// NewEvaluator creates an evaluator over table.
func NewEvaluator(table *billing.Table, logger zerolog.Logger) *Evaluator {
	return &Evaluator{table: table, logger: logger}
}

// Table returns the table this evaluator queries.
func (e *Evaluator) Table() *billing.Table {
	return e.table
}

// Evaluate returns the records matched by spec, in table order. Exclude
// specs return the table minus the included set.
func (e *Evaluator) Evaluate(spec FilterSpec) []billing.BillingRecord {
	mask := e.evaluateMask(spec)
	if spec.Exclude {
		for i := range mask {
			mask[i] = !mask[i]
		}
	}
	return selectRows(e.table.Records(), mask)
}

// evaluateMask computes the inclusion mask for spec ignoring Exclude.
func (e *Evaluator) evaluateMask(spec FilterSpec) []bool {
	if spec.Logic == LogicOr {
		return e.orMask(spec.Criteria)
	}
	return e.andMask(spec.Criteria)
}

func (e *Evaluator) andMask(criteria map[string]Criterion) []bool {
	mask := allTrue(e.table.Len())
	for column, criterion := range criteria {
		columnMask := e.MatchColumn(column, criterion)
		for i := range mask {
			mask[i] = mask[i] && columnMask[i]
		}
	}
	return mask
}

// orMask unions per-column masks, except that a Billing Month criterion is
// always a pre-restriction: the month filter limits scope, it is not one
// alternative among the OR terms. Without this, any other matching
// criterion would leak rows from unrelated months.
//
// An unknown column contributes nothing to the union. The AND-mode
// "no restriction" fallback would flood an OR union with every row, so here
// the criterion is dropped instead.
func (e *Evaluator) orMask(criteria map[string]Criterion) []bool {
	if len(criteria) == 0 {
		return allTrue(e.table.Len())
	}

	scope := allTrue(e.table.Len())
	rest := make(map[string]Criterion, len(criteria))
	for column, criterion := range criteria {
		if column == billing.ColBillingMonth {
			scope = e.MatchColumn(column, criterion)
			continue
		}
		rest[column] = criterion
	}

	// Only a month criterion: the narrowed scope is the result.
	if len(rest) == 0 {
		return scope
	}

	union := make([]bool, e.table.Len())
	for column, criterion := range rest {
		col, ok := billing.ResolveColumn(column)
		if !ok {
			e.warnUnknownColumn(column, "criterion contributes nothing to the union")
			continue
		}
		columnMask := e.matchResolved(col, criterion)
		for i := range union {
			union[i] = union[i] || columnMask[i]
		}
	}
	for i := range union {
		union[i] = union[i] && scope[i]
	}
	return union
}

// MatchColumn evaluates one column's criterion against every record,
// returning a boolean mask of table length.
//
// A column absent from the schema imposes no restriction under AND: the
// mask is all-true and a warning is logged, so queries keep working when a
// filter references a column the export does not carry. OR mode handles
// unknown columns itself, dropping them from the union.
func (e *Evaluator) MatchColumn(column string, criterion Criterion) []bool {
	col, ok := billing.ResolveColumn(column)
	if !ok {
		e.warnUnknownColumn(column, "criterion imposes no restriction")
		return allTrue(e.table.Len())
	}
	return e.matchResolved(col, criterion)
}

func (e *Evaluator) warnUnknownColumn(column, consequence string) {
	e.logger.Warn().
		Str("column", column).
		Strs("available_columns", billing.ColumnNames()).
		Msg("unknown column in filter; " + consequence)
}

func (e *Evaluator) matchResolved(col billing.Column, criterion Criterion) []bool {
	records := e.table.Records()
	mask := make([]bool, len(records))
	switch col.Kind {
	case billing.ColumnNumeric:
		matchNumericColumn(records, col, criterion, mask)
	default:
		matchTextColumn(records, col, criterion, mask)
	}
	return mask
}

// matchNumericColumn compares numerically when the criterion coerces to a
// number, and falls back to text matching against the value's string form
// when it does not.
func matchNumericColumn(records []billing.BillingRecord, col billing.Column, criterion Criterion, mask []bool) {
	if criterion.IsNumeric() {
		for i := range records {
			mask[i] = col.Num(&records[i]).Equal(criterion.Value())
		}
		return
	}

	for _, pattern := range criterion.Patterns() {
		if value, err := decimal.NewFromString(pattern); err == nil {
			for i := range records {
				mask[i] = mask[i] || col.Num(&records[i]).Equal(value)
			}
			continue
		}
		matcher := compilePattern(pattern)
		for i := range records {
			mask[i] = mask[i] || matcher.matches(col.Num(&records[i]).String())
		}
	}
}

// matchTextColumn ORs each pattern's match across the list criterion. A
// numeric criterion against a text column coerces the cell; cells that do
// not parse never match.
func matchTextColumn(records []billing.BillingRecord, col billing.Column, criterion Criterion, mask []bool) {
	if criterion.IsNumeric() {
		for i := range records {
			if value, err := decimal.NewFromString(col.Text(&records[i])); err == nil {
				mask[i] = value.Equal(criterion.Value())
			}
		}
		return
	}

	matchers := compileCriterion(criterion)
	for i := range records {
		cell := col.Text(&records[i])
		for _, m := range matchers {
			if m.matches(cell) {
				mask[i] = true
				break
			}
		}
	}
}

func allTrue(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func selectRows(records []billing.BillingRecord, mask []bool) []billing.BillingRecord {
	var out []billing.BillingRecord
	for i := range records {
		if mask[i] {
			out = append(out, records[i])
		}
	}
	return out
}
