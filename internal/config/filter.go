package config

import (
	"fmt"
	"strings"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/query"
	"github.com/vechiato/spendsleuth/internal/report"
)

const defaultPatternColumn = billing.ColInstanceName

// ParseFilterCommand parses one filter command string from the planning
// config into a query spec. The string uses the filter CLI's flag syntax,
// so a command tested on the command line drops into a group unchanged; a
// leading interpreter or script path before the first flag is ignored.
func ParseFilterCommand(command string) (query.FilterSpec, error) {
	spec := query.FilterSpec{Criteria: make(map[string]query.Criterion)}

	tokens, err := splitCommand(command)
	if err != nil {
		return spec, err
	}
	for len(tokens) > 0 && !strings.HasPrefix(tokens[0], "--") {
		tokens = tokens[1:]
	}

	patterns := make(map[string][]string)
	patternColumn := defaultPatternColumn
	var patternValues []string

	for i := 0; i < len(tokens); i++ {
		flag := tokens[i]
		switch flag {
		case "--exclude":
			spec.Exclude = true
			continue
		case "--logic", "--instances", "--services", "--service",
			"--regions", "--months", "--pattern", "--pattern-column":
		default:
			return spec, fmt.Errorf("unknown filter flag %q", flag)
		}

		i++
		if i >= len(tokens) {
			return spec, fmt.Errorf("filter flag %q is missing a value", flag)
		}
		value := tokens[i]

		switch flag {
		case "--logic":
			switch strings.ToLower(value) {
			case "and":
				spec.Logic = query.LogicAnd
			case "or":
				spec.Logic = query.LogicOr
			default:
				return spec, fmt.Errorf("invalid filter logic %q", value)
			}
		case "--instances":
			patterns[billing.ColInstanceName] = append(patterns[billing.ColInstanceName], splitValues(value)...)
		case "--services", "--service":
			patterns[billing.ColServiceName] = append(patterns[billing.ColServiceName], splitValues(value)...)
		case "--regions":
			patterns[billing.ColRegion] = append(patterns[billing.ColRegion], splitValues(value)...)
		case "--months":
			for _, month := range splitValues(value) {
				patterns[billing.ColBillingMonth] = append(patterns[billing.ColBillingMonth], report.CanonicalMonth(month))
			}
		case "--pattern":
			patternValues = append(patternValues, splitValues(value)...)
		case "--pattern-column":
			patternColumn = value
		}
	}

	for _, p := range patternValues {
		patterns[patternColumn] = append(patterns[patternColumn], p)
	}
	for column, values := range patterns {
		spec.Criteria[column] = query.Text(values...)
	}
	return spec, nil
}

// splitValues splits a comma-separated flag value into trimmed patterns.
func splitValues(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitCommand tokenizes a command string, honoring single and double
// quotes so service names with spaces survive as one token.
func splitCommand(command string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unbalanced quote in filter command %q", command)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
