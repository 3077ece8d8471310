package planning

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/query"
)

// Engine runs planning groups against a billing table. Groups read the same
// immutable table and write only their own results, so the engine is safe
// to rerun and its output depends only on its inputs.
type Engine struct {
	table  *billing.Table
	eval   *query.Evaluator
	logger zerolog.Logger
}

// NewEngine creates a planning engine over table.
func NewEngine(table *billing.Table, logger zerolog.Logger) *Engine {
	return &Engine{
		table:  table,
		eval:   query.NewEvaluator(table, logger),
		logger: logger,
	}
}

// Run resolves every group's matched records, actual costs, and budget
// split, then reconciles the whole set against the table.
func (e *Engine) Run(groups []Group) *Dataset {
	start := time.Now()
	runID := uuid.New().String()

	results := make([]*GroupResult, 0, len(groups))
	monthSet := make(map[string]struct{})
	for i := range groups {
		g := &groups[i]
		matched := e.eval.Combine(g.Filters)
		result := g.resolve(matched)
		results = append(results, result)

		for month := range g.Budgets {
			monthSet[month] = struct{}{}
		}

		e.logger.Info().
			Str("run_id", runID).
			Str("group", g.Name).
			Int("filters", len(g.Filters)).
			Int("matched_records", len(matched)).
			Int("months_with_data", len(result.ActualCosts)).
			Str("total_cost", result.TotalActual().StringFixed(2)).
			Str("planned", result.TotalPlanned().StringFixed(2)).
			Str("not_planned", result.TotalNotPlanned().StringFixed(2)).
			Msg("group resolved")
	}

	allMonths := make([]string, 0, len(monthSet))
	for month := range monthSet {
		allMonths = append(allMonths, month)
	}
	sort.Strings(allMonths)

	dataset := buildDataset(e.table, results, allMonths)

	e.logger.Info().
		Str("run_id", runID).
		Int("groups", len(groups)).
		Str("total_billing_cost", dataset.TotalBillingCost.StringFixed(2)).
		Str("categorized_cost", dataset.CategorizedCost.StringFixed(2)).
		Str("uncategorized_cost", dataset.UncategorizedCost.StringFixed(2)).
		Str("coverage_pct", dataset.CoveragePercent.StringFixed(1)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("planning run complete")

	return dataset
}
