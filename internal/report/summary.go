package report

import (
	"fmt"
	"strings"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/query"
)

const topServices = 5

// Summary renders the overall text report for a billing table: account
// header, totals, monthly breakdown, top services, and regions.
func Summary(table *billing.Table, metas []billing.FileMetadata) string {
	if table.Len() == 0 {
		return "No data available for analysis."
	}

	records := table.Records()
	analysis := query.Analyze(records)
	regions := query.RegionBreakdown(records)
	savings := analysis.OriginalCost.Sub(analysis.TotalCost)

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nCLOUD BILLING ANALYSIS REPORT\n%s\n", rule, rule)

	if len(metas) > 0 {
		fmt.Fprintf(&b, "Account Name: %s\n", orNA(metas[0].AccountName))
		fmt.Fprintf(&b, "Account ID: %s\n", orNA(metas[0].AccountOwnerID))
	}

	b.WriteString("\nOVERALL SUMMARY\n--------------------\n")
	fmt.Fprintf(&b, "Total Records: %d\n", analysis.TotalRecords)
	fmt.Fprintf(&b, "Total Cost: %s\n", analysis.TotalCost.StringFixed(2))
	fmt.Fprintf(&b, "Original Cost: %s\n", analysis.OriginalCost.StringFixed(2))
	fmt.Fprintf(&b, "Total Savings: %s\n", savings.StringFixed(2))
	if months := analysis.MonthlyCosts; len(months) > 0 {
		fmt.Fprintf(&b, "Date Range: %s to %s\n", months[0].Month, months[len(months)-1].Month)
	}

	b.WriteString("\nMONTHLY BREAKDOWN\n--------------------\n")
	for _, m := range analysis.MonthlyCosts {
		fmt.Fprintf(&b, "%s: %s (%d services, %d instances)\n",
			m.Month, m.TotalCost.StringFixed(2), m.UniqueServices, m.UniqueInstances)
	}

	b.WriteString("\nTOP SERVICES BY COST\n-------------------------\n")
	for i, s := range analysis.ServiceBreakdown {
		if i >= topServices {
			break
		}
		fmt.Fprintf(&b, "%s: %s (%d instances)\n",
			s.ServiceName, s.TotalCost.StringFixed(2), s.UniqueInstances)
	}

	b.WriteString("\nREGIONAL BREAKDOWN\n--------------------\n")
	shown := 0
	for _, r := range regions {
		if strings.TrimSpace(r.Region) == "" {
			continue
		}
		if shown >= topServices {
			break
		}
		fmt.Fprintf(&b, "%s: %s\n", r.Region, r.TotalCost.StringFixed(2))
		shown++
	}

	return strings.TrimRight(b.String(), "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
