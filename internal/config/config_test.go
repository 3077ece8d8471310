package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechiato/spendsleuth/internal/billing"
	"github.com/vechiato/spendsleuth/internal/planning"
	"github.com/vechiato/spendsleuth/internal/query"
)

const samplePlanning = `
groups:
  - name: kubernetes
    filter: "--services 'Kubernetes Service' --logic and"
    months:
      Jan-25: 1000
      Q2-25: 300
      Jul-25: planned
  - name: storage
    filters:
      - "--services 'Cloud Object Storage'"
      - "--instances 'temp-*' --exclude"
    months:
      H1-25: not_planned
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(samplePlanning))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 2)

	kube := cfg.Groups[0]
	assert.Equal(t, "kubernetes", kube.Name)
	require.Len(t, kube.Filters, 1)
	require.Len(t, kube.Months, 3)

	// Declarations keep file order, and single-month display labels
	// canonicalize at parse time.
	assert.Equal(t, "2025-01", kube.Months[0].Period)
	assert.True(t, kube.Months[0].IsNumber)
	assert.True(t, kube.Months[0].Amount.Equal(decimal.NewFromInt(1000)))

	assert.Equal(t, "Q2-25", kube.Months[1].Period, "multi-period tokens pass through")
	assert.Equal(t, "2025-07", kube.Months[2].Period)
	assert.False(t, kube.Months[2].IsNumber)
	assert.Equal(t, "planned", kube.Months[2].Raw)

	storage := cfg.Groups[1]
	require.Len(t, storage.Filters, 2)
	require.Len(t, storage.Months, 1)
	assert.Equal(t, "not_planned", storage.Months[0].Raw)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no groups",
			yaml:    "groups: []\n",
			wantErr: "no groups",
		},
		{
			name:    "missing name",
			yaml:    "groups:\n  - filter: \"--services x\"\n    months:\n      Jan-25: 1\n",
			wantErr: "name is required",
		},
		{
			name:    "missing filters",
			yaml:    "groups:\n  - name: g\n    months:\n      Jan-25: 1\n",
			wantErr: "filter or filters is required",
		},
		{
			name:    "missing months",
			yaml:    "groups:\n  - name: g\n    filter: \"--services x\"\n",
			wantErr: "months is required",
		},
		{
			name:    "months not a mapping",
			yaml:    "groups:\n  - name: g\n    filter: \"--services x\"\n    months:\n      - Jan-25\n",
			wantErr: "months must be a mapping",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	cfg, err := Parse([]byte(samplePlanning))
	require.NoError(t, err)

	groups, err := cfg.Resolve(zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	kube := groups[0]
	assert.Equal(t, "kubernetes", kube.Name)
	require.Len(t, kube.Filters, 1)

	// Jan-25: 1000, Q2-25: 300 over three months, Jul-25: planned.
	assert.True(t, kube.Budgets["2025-01"].Amount().Equal(decimal.NewFromInt(1000)))
	assert.True(t, kube.Budgets["2025-04"].Amount().Equal(decimal.NewFromInt(100)))
	assert.True(t, kube.Budgets["2025-06"].Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, planning.BudgetUnlimited, kube.Budgets["2025-07"].Kind())

	storage := groups[1]
	require.Len(t, storage.Filters, 2)
	assert.True(t, storage.Filters[1].Exclude)
	assert.Equal(t, planning.BudgetZero, storage.Budgets["2025-03"].Kind())
}

func TestResolveBadFilterCommand(t *testing.T) {
	cfg := &PlanningConfig{Groups: []GroupConfig{{
		Name:    "broken",
		Filters: []FilterDecl{{Command: "--nonsense value"}},
		Months:  []planning.PeriodDecl{{Period: "2025-01", Raw: "planned"}},
	}}}

	_, err := cfg.Resolve(zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "--nonsense")
}

func TestParseStructuredFilter(t *testing.T) {
	cfg, err := Parse([]byte(`
groups:
  - name: databases
    filters:
      - services: ["Databases for PostgreSQL", "Databases for Redis"]
        months: ["Jan-25"]
        logic: or
      - instances: ["legacy-*"]
        exclude: true
    months:
      Jan-25: 200
`))
	require.NoError(t, err)

	groups, err := cfg.Resolve(zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Filters, 2)

	first := groups[0].Filters[0]
	assert.Equal(t, query.LogicOr, first.Logic)
	assert.Equal(t, []string{"Databases for PostgreSQL", "Databases for Redis"},
		first.Criteria[billing.ColServiceName].Patterns())
	assert.Equal(t, []string{"2025-01"}, first.Criteria[billing.ColBillingMonth].Patterns())

	second := groups[0].Filters[1]
	assert.True(t, second.Exclude)
	assert.Equal(t, []string{"legacy-*"}, second.Criteria[billing.ColInstanceName].Patterns())
}

func TestParseErrorsWrapSentinel(t *testing.T) {
	_, err := Parse([]byte("groups: []\n"))
	require.ErrorIs(t, err, ErrMalformedConfig)
}
