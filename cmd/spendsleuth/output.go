package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/query"
	"github.com/vechiato/spendsleuth/internal/report"
)

func writeJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

// filterResult is the JSON shape of a filter run.
type filterResult struct {
	MatchedRecords int            `json:"matched_records"`
	TotalCost      string         `json:"total_cost"`
	OriginalCost   string         `json:"original_cost"`
	Monthly        []monthlyLine  `json:"monthly"`
	Services       []serviceLine  `json:"services"`
	TopInstances   []instanceLine `json:"top_instances"`
}

type monthlyLine struct {
	Month     string `json:"month"`
	TotalCost string `json:"total_cost"`
	Services  int    `json:"unique_services"`
	Instances int    `json:"unique_instances"`
}

type serviceLine struct {
	Service   string `json:"service"`
	TotalCost string `json:"total_cost"`
	Instances int    `json:"unique_instances"`
}

type instanceLine struct {
	Instance  string `json:"instance"`
	Service   string `json:"service"`
	Region    string `json:"region,omitempty"`
	TotalCost string `json:"total_cost"`
}

func writeFilterResult(c *cli.Context, matched []billing.BillingRecord) error {
	analysis := query.Analyze(matched)
	top := query.TopInstances(matched, c.Int("top"))

	if c.String("format") == "json" {
		result := filterResult{
			MatchedRecords: analysis.TotalRecords,
			TotalCost:      analysis.TotalCost.StringFixed(2),
			OriginalCost:   analysis.OriginalCost.StringFixed(2),
		}
		for _, m := range analysis.MonthlyCosts {
			result.Monthly = append(result.Monthly, monthlyLine{
				Month:     report.DisplayMonth(m.Month),
				TotalCost: m.TotalCost.StringFixed(2),
				Services:  m.UniqueServices,
				Instances: m.UniqueInstances,
			})
		}
		for _, s := range analysis.ServiceBreakdown {
			result.Services = append(result.Services, serviceLine{
				Service:   s.ServiceName,
				TotalCost: s.TotalCost.StringFixed(2),
				Instances: s.UniqueInstances,
			})
		}
		for _, inst := range top {
			result.TopInstances = append(result.TopInstances, instanceLine{
				Instance:  inst.InstanceName,
				Service:   inst.ServiceName,
				Region:    inst.Region,
				TotalCost: inst.TotalCost.StringFixed(2),
			})
		}
		return writeJSON(c, result)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Matched %d records, total cost %s\n", analysis.TotalRecords, analysis.TotalCost.StringFixed(2))
	if analysis.TotalRecords == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nMonthly:")
	for _, m := range analysis.MonthlyCosts {
		fmt.Fprintf(w, "  %s: %s (%d services, %d instances)\n",
			report.DisplayMonth(m.Month), m.TotalCost.StringFixed(2), m.UniqueServices, m.UniqueInstances)
	}

	fmt.Fprintln(w, "\nTop instances:")
	for _, inst := range top {
		fmt.Fprintf(w, "  %s [%s]: %s\n", inst.InstanceName, inst.ServiceName, inst.TotalCost.StringFixed(2))
	}
	return nil
}

func writePlanResult(c *cli.Context, r *report.PlanningReport) error {
	if c.String("format") == "json" {
		return writeJSON(c, r)
	}

	w := c.App.Writer
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "%s\nBUDGET PLANNING REPORT\n%s\n", rule, rule)
	fmt.Fprintf(w, "Total billing cost: %s\n", r.TotalBillingCost)
	fmt.Fprintf(w, "Categorized: %s (%s%%)\n", r.CategorizedCost, r.CoveragePercent)
	fmt.Fprintf(w, "Uncategorized: %s\n", r.UncategorizedCost)

	for _, g := range r.Groups {
		fmt.Fprintf(w, "\n%s\n%s\n", g.Name, strings.Repeat("-", len(g.Name)))
		fmt.Fprintf(w, "  Actual: %s  Planned: %s  Not planned: %s\n",
			g.TotalActual, g.TotalPlanned, g.TotalNotPlanned)
		for _, month := range r.Months {
			actual, ok := g.ActualCosts[month]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %s: actual %s, planned %s, not planned %s\n",
				month, actual, g.PlannedCosts[month], g.NotPlannedCosts[month])
		}
		if len(g.UndefinedMonths) > 0 {
			fmt.Fprintf(w, "  Months with cost but no budget: %s\n", strings.Join(g.UndefinedMonths, ", "))
		}
	}

	fmt.Fprintln(w, "\nValidation:")
	for _, row := range r.Validation {
		fmt.Fprintf(w, "  %s: source %s, groups %s, diff %s [%s]\n",
			row.Month, row.SourceTotal, row.GroupTotal, row.Difference, row.Band)
	}

	if len(r.Uncategorized) > 0 {
		fmt.Fprintln(w, "\nTop uncategorized costs:")
		for i, item := range r.Uncategorized {
			if i >= 10 {
				break
			}
			fmt.Fprintf(w, "  %s  %s / %s: %s\n", item.Month, item.Service, item.Resource, item.Cost)
		}
	}
	return nil
}
