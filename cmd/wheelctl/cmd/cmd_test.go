package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelplan/projection-engine/api"
)

const threeDayYAML = `name: Three days
initial_capital: 1000
time_horizon_days: 3
baseline_daily_return_percent: 1
contribution_plan:
  amount: 100
  frequency: daily
  start_date: 2024-01-01
custom_returns:
  "3": 2
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInit_WritesLoadablePreset(t *testing.T) {
	for _, name := range []string{"plan.yaml", "plan.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			out, err := run(t, "init", "-o", path, "--preset", "drawdown", "--start", "2024-01-01")
			require.NoError(t, err)
			assert.Contains(t, out, "Created drawdown plan")

			cfg, ov, err := loadValidPlan(path)
			require.NoError(t, err)
			assert.Equal(t, 180, cfg.TimeHorizonDays)
			assert.Equal(t, "2024-01-01", cfg.ContributionPlan.StartDate.String())
			assert.Equal(t, 5, ov.Returns.Len())

			_, err = run(t, "init", "-o", path)
			assert.ErrorContains(t, err, "already exists")

			_, err = run(t, "init", "-o", path, "--force")
			assert.NoError(t, err)
		})
	}
}

func TestInit_UnknownPreset(t *testing.T) {
	_, err := run(t, "init", "-o", filepath.Join(t.TempDir(), "p.yaml"), "--preset", "moonshot")
	assert.ErrorContains(t, err, "unknown preset")
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.yaml", threeDayYAML)
	out, err := run(t, "validate", "-f", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Plan valid")
	assert.Contains(t, out, "1000.00 USDT over 3 days")

	bad := writeFile(t, "bad.json", `{
  "initial_capital": "0",
  "time_horizon_days": 0,
  "baseline_daily_return_percent": "1"
}`)
	out, err = run(t, "validate", "-f", bad)
	require.Error(t, err)
	assert.Contains(t, out, "2 problem(s)")
	assert.Contains(t, out, "initial_capital")
	assert.Contains(t, out, "time_horizon_days")

	_, err = run(t, "validate")
	assert.Error(t, err, "--file is required")
}

func TestProject_TableIncludesSummary(t *testing.T) {
	path := writeFile(t, "plan.yml", threeDayYAML)

	out, err := run(t, "project", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "final_capital")
	assert.Contains(t, out, "2.0000*", "custom return is marked")
	assert.Contains(t, out, "Final capital:")
	assert.Contains(t, out, "Overrides:")
}

func TestProject_CSV(t *testing.T) {
	path := writeFile(t, "plan.yaml", threeDayYAML)

	out, err := run(t, "project", "-f", path, "--format", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "day", rows[0][0])
	assert.Equal(t, []string{"1", "2024-01-01"}, rows[1][:2])
	assert.Equal(t, "1111.00", rows[1][7])
	assert.Equal(t, "true", rows[3][10])
}

func TestProject_JSONMatchesAPIRounding(t *testing.T) {
	// GIVEN: The three-day example with day 3 at 2%
	// WHEN: Projecting as JSON
	// THEN: Day 3 ends at 1323.11 * 1.02 = 1349.5722, shown as 1349.57

	path := writeFile(t, "plan.yaml", threeDayYAML)

	out, err := run(t, "project", "-f", path, "--format", "json")
	require.NoError(t, err)

	var resp api.LedgerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, "1349.57", resp.Entries[2].FinalCapital)
	assert.True(t, resp.Entries[2].IsCustomReturn)
	assert.Equal(t, "1349.57", resp.Summary.FinalCapital)
	assert.Equal(t, 1, resp.Summary.CustomReturnDays)

	out, err = run(t, "project", "-f", path, "--format", "json", "--summary")
	require.NoError(t, err)
	var summary api.SummaryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "300.00", summary.TotalContributed)
}

func TestProject_Errors(t *testing.T) {
	path := writeFile(t, "plan.yaml", threeDayYAML)

	_, err := run(t, "project", "-f", path, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "project", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read plan")
}

func TestSchedule(t *testing.T) {
	path := writeFile(t, "plan.yaml", strings.Replace(threeDayYAML, "frequency: daily", "frequency: custom\n  custom_interval_days: 2", 1))

	out, err := run(t, "schedule", "-f", path, "--as-of", "2024-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "2024-01-03")
	assert.Contains(t, out, "2 contributions, next on 2024-01-03 (day 3)")

	out, err = run(t, "schedule", "-f", path, "--as-of", "2024-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "none left after 2024-02-01")

	_, err = run(t, "schedule", "-f", path, "--as-of", "soon")
	assert.ErrorContains(t, err, "--as-of")
}
