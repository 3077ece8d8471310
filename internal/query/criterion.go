// Package query implements boolean filtering and aggregation over the
// billing table: per-column criterion matching, AND/OR filter specs,
// multi-filter combination with exclusion, and rollup analysis.
package query

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Criterion is one column's match condition. A text criterion carries one or
// more patterns OR'd together; each pattern is an exact case-insensitive
// match unless it contains "*", in which case it is an unanchored wildcard
// search. A numeric criterion compares by equality.
type Criterion struct {
	patterns []string
	number   decimal.Decimal
	numeric  bool
}

// Text builds a criterion from one or more string patterns.
func Text(patterns ...string) Criterion {
	return Criterion{patterns: patterns}
}

// Number builds a numeric equality criterion.
func Number(value decimal.Decimal) Criterion {
	return Criterion{number: value, numeric: true}
}

// IsNumeric reports whether the criterion compares numerically.
func (c Criterion) IsNumeric() bool {
	return c.numeric
}

// Patterns returns the text patterns of a text criterion.
func (c Criterion) Patterns() []string {
	return c.patterns
}

// Value returns the comparison value of a numeric criterion.
func (c Criterion) Value() decimal.Decimal {
	return c.number
}

// textMatcher is a compiled single pattern. Compiling once per criterion
// keeps regexp construction out of the per-row loop.
type textMatcher struct {
	exact string
	re    *regexp.Regexp
}

// compilePattern builds a matcher for one pattern. A "*" wildcard expands to
// "any sequence of characters" and the match is a substring search; a
// pattern without "*" requires a full case-insensitive match.
func compilePattern(pattern string) textMatcher {
	if !strings.Contains(pattern, "*") {
		return textMatcher{exact: pattern}
	}
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return textMatcher{re: regexp.MustCompile("(?i)" + strings.Join(parts, ".*"))}
}

func (m textMatcher) matches(cell string) bool {
	if m.re != nil {
		return m.re.MatchString(cell)
	}
	return strings.EqualFold(cell, m.exact)
}

// compileCriterion prepares per-pattern matchers for a text criterion.
func compileCriterion(c Criterion) []textMatcher {
	matchers := make([]textMatcher, len(c.patterns))
	for i, p := range c.patterns {
		matchers[i] = compilePattern(p)
	}
	return matchers
}
