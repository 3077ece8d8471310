package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExport = `Account Name,Account Owner ID,Billing Month,Currency,Currency Rate,Created Time
Acme Corp,acme-123,2025-01,USD,1.0,2025-02-03T10:00:00Z
,,,,,
Service Name,Instance Name,Plan Name,Region,Usage Quantity,Original Cost,Cost
Kubernetes Service,prod-cluster,Standard,us-south,744,300.00,250.00
Cloud Object Storage,backup-bucket,Standard,us-south,120.5,15.00,12.50
`

const testPlanningConfig = `
groups:
  - name: kubernetes
    filter: "--services 'Kubernetes Service'"
    months:
      Jan-25: planned
`

func testDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "acme-instances-2025-01.csv")
	require.NoError(t, os.WriteFile(path, []byte(testExport), 0o644))
	return dir
}

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run(append([]string{"spendsleuth"}, args...)))
	return out.String()
}

func TestSummaryCommand(t *testing.T) {
	out := runApp(t, "--data-dir", testDataDir(t), "summary")
	assert.Contains(t, out, "Account Name: Acme Corp")
	assert.Contains(t, out, "Total Cost: 262.50")
}

func TestFilterCommandJSON(t *testing.T) {
	out := runApp(t, "--data-dir", testDataDir(t),
		"filter", "--services", "Kubernetes Service", "--format", "json")

	var result struct {
		MatchedRecords int    `json:"matched_records"`
		TotalCost      string `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.MatchedRecords)
	assert.Equal(t, "250.00", result.TotalCost)
}

func TestFilterCommandExclude(t *testing.T) {
	out := runApp(t, "--data-dir", testDataDir(t),
		"filter", "--services", "Kubernetes Service", "--exclude")
	assert.Contains(t, out, "Matched 1 records")
	assert.Contains(t, out, "backup-bucket")
}

func TestPlanCommand(t *testing.T) {
	dir := testDataDir(t)
	cfgPath := filepath.Join(dir, "planning.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testPlanningConfig), 0o644))

	out := runApp(t, "--data-dir", dir, "plan", "--config", cfgPath)
	assert.Contains(t, out, "BUDGET PLANNING REPORT")
	assert.Contains(t, out, "Total billing cost: 262.50")
	assert.Contains(t, out, "Uncategorized: 12.50")
}

func TestFilterCommandBadLogic(t *testing.T) {
	app := newApp()
	app.Writer = new(bytes.Buffer)
	err := app.Run([]string{"spendsleuth", "--data-dir", t.TempDir(), "filter", "--logic", "maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --logic")
}
