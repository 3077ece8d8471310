package query

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vechiato/spendsleuth/internal/billing"
)

// MonthlyRollup aggregates a record set for one billing month.
type MonthlyRollup struct {
	Month           string
	TotalCost       decimal.Decimal
	OriginalCost    decimal.Decimal
	UniqueInstances int
	UniqueServices  int
}

// ServiceRollup aggregates a record set for one service.
type ServiceRollup struct {
	ServiceName     string
	TotalCost       decimal.Decimal
	OriginalCost    decimal.Decimal
	UniqueInstances int
	MonthsActive    int
}

// InstanceRollup aggregates a record set for one (instance, service) pair.
type InstanceRollup struct {
	InstanceName string
	ServiceName  string
	Region       string
	TotalCost    decimal.Decimal
	OriginalCost decimal.Decimal
	TotalUsage   decimal.Decimal
	MonthsActive int
}

// RegionRollup aggregates a record set for one region.
type RegionRollup struct {
	Region          string
	TotalCost       decimal.Decimal
	UniqueServices  int
	UniqueInstances int
}

// Analysis is the full rollup bundle for a matched record set. An empty
// match yields a well-formed Analysis with zeroed aggregates.
type Analysis struct {
	TotalRecords     int
	TotalCost        decimal.Decimal
	OriginalCost     decimal.Decimal
	MonthlyCosts     []MonthlyRollup
	ServiceBreakdown []ServiceRollup
	InstanceDetails  []InstanceRollup
}

// MonthlyCosts sums Cost per billing month. This per-month map is what a
// planning group's actual costs are built from.
func MonthlyCosts(records []billing.BillingRecord) map[string]decimal.Decimal {
	costs := make(map[string]decimal.Decimal)
	for i := range records {
		r := &records[i]
		costs[r.BillingMonth] = costs[r.BillingMonth].Add(r.Cost)
	}
	return costs
}

// Analyze computes the monthly, service, and instance rollups for a matched
// record set.
func Analyze(records []billing.BillingRecord) *Analysis {
	a := &Analysis{TotalRecords: len(records)}
	for i := range records {
		a.TotalCost = a.TotalCost.Add(records[i].Cost)
		a.OriginalCost = a.OriginalCost.Add(records[i].OriginalCost)
	}
	a.MonthlyCosts = monthlyRollups(records)
	a.ServiceBreakdown = serviceRollups(records)
	a.InstanceDetails = instanceRollups(records)
	return a
}

func monthlyRollups(records []billing.BillingRecord) []MonthlyRollup {
	byMonth := make(map[string]*MonthlyRollup)
	instances := make(map[string]map[string]struct{})
	services := make(map[string]map[string]struct{})

	for i := range records {
		r := &records[i]
		roll, ok := byMonth[r.BillingMonth]
		if !ok {
			roll = &MonthlyRollup{Month: r.BillingMonth}
			byMonth[r.BillingMonth] = roll
			instances[r.BillingMonth] = make(map[string]struct{})
			services[r.BillingMonth] = make(map[string]struct{})
		}
		roll.TotalCost = roll.TotalCost.Add(r.Cost)
		roll.OriginalCost = roll.OriginalCost.Add(r.OriginalCost)
		instances[r.BillingMonth][r.InstanceName] = struct{}{}
		services[r.BillingMonth][r.ServiceName] = struct{}{}
	}

	out := make([]MonthlyRollup, 0, len(byMonth))
	for month, roll := range byMonth {
		roll.UniqueInstances = len(instances[month])
		roll.UniqueServices = len(services[month])
		out = append(out, *roll)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func serviceRollups(records []billing.BillingRecord) []ServiceRollup {
	byService := make(map[string]*ServiceRollup)
	instances := make(map[string]map[string]struct{})
	months := make(map[string]map[string]struct{})

	for i := range records {
		r := &records[i]
		roll, ok := byService[r.ServiceName]
		if !ok {
			roll = &ServiceRollup{ServiceName: r.ServiceName}
			byService[r.ServiceName] = roll
			instances[r.ServiceName] = make(map[string]struct{})
			months[r.ServiceName] = make(map[string]struct{})
		}
		roll.TotalCost = roll.TotalCost.Add(r.Cost)
		roll.OriginalCost = roll.OriginalCost.Add(r.OriginalCost)
		instances[r.ServiceName][r.InstanceName] = struct{}{}
		months[r.ServiceName][r.BillingMonth] = struct{}{}
	}

	out := make([]ServiceRollup, 0, len(byService))
	for service, roll := range byService {
		roll.UniqueInstances = len(instances[service])
		roll.MonthsActive = len(months[service])
		out = append(out, *roll)
	}
	sortByCostDesc(out, func(r ServiceRollup) decimal.Decimal { return r.TotalCost }, func(r ServiceRollup) string { return r.ServiceName })
	return out
}

func instanceRollups(records []billing.BillingRecord) []InstanceRollup {
	type key struct{ instance, service string }
	byPair := make(map[key]*InstanceRollup)
	months := make(map[key]map[string]struct{})

	for i := range records {
		r := &records[i]
		k := key{r.InstanceName, r.ServiceName}
		roll, ok := byPair[k]
		if !ok {
			roll = &InstanceRollup{InstanceName: r.InstanceName, ServiceName: r.ServiceName, Region: r.Region}
			byPair[k] = roll
			months[k] = make(map[string]struct{})
		}
		roll.TotalCost = roll.TotalCost.Add(r.Cost)
		roll.OriginalCost = roll.OriginalCost.Add(r.OriginalCost)
		roll.TotalUsage = roll.TotalUsage.Add(r.UsageQuantity)
		months[k][r.BillingMonth] = struct{}{}
	}

	out := make([]InstanceRollup, 0, len(byPair))
	for k, roll := range byPair {
		roll.MonthsActive = len(months[k])
		out = append(out, *roll)
	}
	sortByCostDesc(out, func(r InstanceRollup) decimal.Decimal { return r.TotalCost }, func(r InstanceRollup) string { return r.InstanceName + "\x1f" + r.ServiceName })
	return out
}

// RegionBreakdown aggregates cost and distinct counts per region, sorted by
// cost descending.
func RegionBreakdown(records []billing.BillingRecord) []RegionRollup {
	byRegion := make(map[string]*RegionRollup)
	services := make(map[string]map[string]struct{})
	instances := make(map[string]map[string]struct{})

	for i := range records {
		r := &records[i]
		roll, ok := byRegion[r.Region]
		if !ok {
			roll = &RegionRollup{Region: r.Region}
			byRegion[r.Region] = roll
			services[r.Region] = make(map[string]struct{})
			instances[r.Region] = make(map[string]struct{})
		}
		roll.TotalCost = roll.TotalCost.Add(r.Cost)
		services[r.Region][r.ServiceName] = struct{}{}
		instances[r.Region][r.InstanceName] = struct{}{}
	}

	out := make([]RegionRollup, 0, len(byRegion))
	for region, roll := range byRegion {
		roll.UniqueServices = len(services[region])
		roll.UniqueInstances = len(instances[region])
		out = append(out, *roll)
	}
	sortByCostDesc(out, func(r RegionRollup) decimal.Decimal { return r.TotalCost }, func(r RegionRollup) string { return r.Region })
	return out
}

// TopInstances returns the n most expensive instance rollups.
func TopInstances(records []billing.BillingRecord, n int) []InstanceRollup {
	rollups := instanceRollups(records)
	if len(rollups) > n {
		rollups = rollups[:n]
	}
	return rollups
}

// sortByCostDesc orders rollups by cost descending with a stable name
// tiebreak so equal costs keep a deterministic order.
func sortByCostDesc[T any](items []T, cost func(T) decimal.Decimal, name func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := cost(items[i]), cost(items[j])
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		return name(items[i]) < name(items[j])
	})
}
