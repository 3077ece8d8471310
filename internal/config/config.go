// Package config loads the YAML planning configuration and parses the
// filter declarations it embeds into query specs.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/planning"
	"github.com/vechiato/spendsleuth/internal/query"
	"github.com/vechiato/spendsleuth/internal/report"
)

// ErrMalformedConfig marks planning configuration shape failures. Loading is
// fail-fast: a malformed group aborts the run before any evaluation.
var ErrMalformedConfig = errors.New("malformed planning config")

// PlanningConfig is the parsed planning file before group resolution.
type PlanningConfig struct {
	Groups []GroupConfig `yaml:"groups"`
}

// GroupConfig is one group declaration. A group carries one or more filter
// declarations; the months section keeps its file order because overlapping
// period declarations resolve last-write-wins.
type GroupConfig struct {
	Name    string
	Filters []FilterDecl
	Months  []planning.PeriodDecl
}

// FilterDecl is one filter entry: either a command string in the filter
// CLI's flag syntax, or a structured mapping with the same fields.
type FilterDecl struct {
	Command    string
	Structured *StructuredFilter
}

// StructuredFilter is the mapping form of a filter declaration.
type StructuredFilter struct {
	Instances     []string `yaml:"instances"`
	Services      []string `yaml:"services"`
	Regions       []string `yaml:"regions"`
	Months        []string `yaml:"months"`
	Pattern       []string `yaml:"pattern"`
	PatternColumn string   `yaml:"pattern_column"`
	Logic         string   `yaml:"logic"`
	Exclude       bool     `yaml:"exclude"`
}

// UnmarshalYAML accepts a scalar command string or a structured mapping.
func (f *FilterDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&f.Command)
	case yaml.MappingNode:
		f.Structured = new(StructuredFilter)
		return node.Decode(f.Structured)
	}
	return fmt.Errorf("filter must be a command string or a mapping")
}

// Spec resolves the declaration into a query spec.
func (f *FilterDecl) Spec() (query.FilterSpec, error) {
	if f.Structured != nil {
		return f.Structured.spec()
	}
	return ParseFilterCommand(f.Command)
}

func (s *StructuredFilter) spec() (query.FilterSpec, error) {
	spec := query.FilterSpec{
		Criteria: make(map[string]query.Criterion),
		Exclude:  s.Exclude,
	}
	switch s.Logic {
	case "", "and":
		spec.Logic = query.LogicAnd
	case "or":
		spec.Logic = query.LogicOr
	default:
		return spec, fmt.Errorf("invalid filter logic %q", s.Logic)
	}

	if len(s.Instances) > 0 {
		spec.Criteria[billing.ColInstanceName] = query.Text(s.Instances...)
	}
	if len(s.Services) > 0 {
		spec.Criteria[billing.ColServiceName] = query.Text(s.Services...)
	}
	if len(s.Regions) > 0 {
		spec.Criteria[billing.ColRegion] = query.Text(s.Regions...)
	}
	if len(s.Months) > 0 {
		months := make([]string, len(s.Months))
		for i, m := range s.Months {
			months[i] = report.CanonicalMonth(m)
		}
		spec.Criteria[billing.ColBillingMonth] = query.Text(months...)
	}
	if len(s.Pattern) > 0 {
		column := s.PatternColumn
		if column == "" {
			column = defaultPatternColumn
		}
		existing := spec.Criteria[column].Patterns()
		spec.Criteria[column] = query.Text(append(existing, s.Pattern...)...)
	}
	return spec, nil
}

// UnmarshalYAML decodes a group node, preserving months order and the
// scalar type of each budget value.
func (g *GroupConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string       `yaml:"name"`
		Filter  *FilterDecl  `yaml:"filter"`
		Filters []FilterDecl `yaml:"filters"`
		Months  yaml.Node    `yaml:"months"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	g.Name = raw.Name
	if raw.Filter != nil {
		g.Filters = append(g.Filters, *raw.Filter)
	}
	g.Filters = append(g.Filters, raw.Filters...)

	if raw.Months.Kind == 0 || raw.Months.Tag == "!!null" {
		return nil
	}
	if raw.Months.Kind != yaml.MappingNode {
		return fmt.Errorf("group %q: months must be a mapping", g.Name)
	}
	for i := 0; i < len(raw.Months.Content); i += 2 {
		key, value := raw.Months.Content[i], raw.Months.Content[i+1]
		decl, err := periodDecl(key, value)
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		g.Months = append(g.Months, decl)
	}
	return nil
}

// periodDecl converts one months entry into a declaration. Single-month
// display labels like "Jan-25" canonicalize here; multi-period tokens pass
// through for expansion.
func periodDecl(key, value *yaml.Node) (planning.PeriodDecl, error) {
	period := key.Value
	if !planning.IsMultiPeriod(period) {
		period = report.CanonicalMonth(period)
	}
	decl := planning.PeriodDecl{Period: period, Raw: value.Value}

	switch value.Tag {
	case "!!int", "!!float":
		amount, err := decimal.NewFromString(value.Value)
		if err != nil {
			return decl, fmt.Errorf("month %q: invalid amount %q", key.Value, value.Value)
		}
		decl.Amount = amount
		decl.IsNumber = true
	}
	return decl, nil
}

// Load reads and validates a planning configuration file.
func Load(path string) (*PlanningConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading planning config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates planning configuration bytes.
func Parse(data []byte) (*PlanningConfig, error) {
	var cfg PlanningConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if len(cfg.Groups) == 0 {
		return nil, fmt.Errorf("%w: no groups declared", ErrMalformedConfig)
	}
	for i, g := range cfg.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("%w: group %d: name is required", ErrMalformedConfig, i+1)
		}
		if len(g.Filters) == 0 {
			return nil, fmt.Errorf("%w: group %q: filter or filters is required", ErrMalformedConfig, g.Name)
		}
		if len(g.Months) == 0 {
			return nil, fmt.Errorf("%w: group %q: months is required", ErrMalformedConfig, g.Name)
		}
	}
	return &cfg, nil
}

// Resolve turns the parsed configuration into runnable planning groups:
// filter declarations become query specs and period declarations expand
// into per-month budgets.
func (c *PlanningConfig) Resolve(logger zerolog.Logger) ([]planning.Group, error) {
	groups := make([]planning.Group, 0, len(c.Groups))
	for _, gc := range c.Groups {
		specs := make([]query.FilterSpec, 0, len(gc.Filters))
		for _, decl := range gc.Filters {
			spec, err := decl.Spec()
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", gc.Name, err)
			}
			specs = append(specs, spec)
		}
		groups = append(groups, planning.Group{
			Name:    gc.Name,
			Filters: specs,
			Budgets: planning.ExpandBudgets(gc.Months, logger),
		})
	}
	return groups, nil
}
