package query

import (
	"github.com/vechiato/spendsleuth/internal/billing"
)

// Combine resolves a group's full filter list into one matched record set.
//
// Include specs are evaluated independently (each with its own AND/OR and
// month-restriction semantics) and unioned with full-row dedup. A group
// with no include specs starts from the entire table, to be narrowed by its
// exclude specs. Exclude specs are likewise unioned, then subtracted from
// the include union by value key rather than row position.
func (e *Evaluator) Combine(specs []FilterSpec) []billing.BillingRecord {
	var includes, excludes []FilterSpec
	for _, spec := range specs {
		if spec.Exclude {
			// Exclusion happens once at the combine step; evaluate the
			// spec's inclusion side to learn which rows it names.
			spec.Exclude = false
			excludes = append(excludes, spec)
		} else {
			includes = append(includes, spec)
		}
	}

	var combined []billing.BillingRecord
	if len(includes) == 0 {
		combined = append(combined, e.table.Records()...)
	} else {
		seen := make(map[string]struct{})
		for _, spec := range includes {
			for _, rec := range e.Evaluate(spec) {
				key := rec.RowKey()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				combined = append(combined, rec)
			}
		}
	}

	if len(excludes) == 0 {
		return combined
	}

	excludeKeys := make(map[string]struct{})
	for _, spec := range excludes {
		for _, rec := range e.Evaluate(spec) {
			excludeKeys[rec.ValueKey()] = struct{}{}
		}
	}

	kept := combined[:0:0]
	for _, rec := range combined {
		if _, drop := excludeKeys[rec.ValueKey()]; !drop {
			kept = append(kept, rec)
		}
	}
	return kept
}
