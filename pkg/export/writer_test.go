package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
	"github.com/jakechorley/block-scheduler/pkg/core/services"
)

func testResult(seed uint64) services.VariationResult {
	return services.VariationResult{
		RunID: "3f1c2a9e-8d4b-4c57-9a61-0e2f7b5d1c88",
		Seed:  seed,
		Outcome: &allocator.AllocationOutcome{
			Seed:    seed,
			Success: true,
			Schedule: []allocator.ScheduledPeriod{
				{
					PeriodIndex: 0,
					Kind:        "weekday",
					WeekNumber:  1,
					Label:       "Week 1 (Mar 02-Mar 06)",
					Dates:       []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"},
					Assignments: []allocator.ScheduledAssignment{{Provider: "ADAMS, KATE", Site: "Cooper"}},
				},
			},
			Gaps: []allocator.Gap{
				{PeriodIndex: 1, WeekNumber: 1, Kind: "weekend", Site: "Cooper", Tier: "zero-gap", Demand: 1, Shortfall: 1},
			},
			Providers: []allocator.ProviderSummary{
				{
					Name:             "ADAMS, KATE",
					ShiftCategory:    "Days",
					FTE:              0.8,
					AnnualWeeks:      12.5,
					RemainingWeeks:   12.5,
					WeeksAssigned:    1,
					SiteDistribution: map[string]int{"Vineland": 1, "Cooper": 2},
					EligibleSites:    []string{"Cooper", "Vineland"},
					Markers:          []string{"moonlighter", "new_hire"},
				},
			},
			SiteCoverage: []allocator.SiteCoverage{
				{Site: "Cooper", Tier: "zero-gap", WeekdayDemand: 1, WeekdayFilled: 1, WeekdayCoveragePct: 100, WeekendDemand: 1, WeekendCoveragePct: 0},
			},
			Stats: allocator.Stats{Assignments: 1, TotalGaps: 1, ZeroGapGaps: 1, CoveragePct: 50, Swaps: 2},
		},
		Warnings: []allocator.Warning{{Kind: allocator.WarningUnknownTag, Subject: "ADAMS, KATE", Detail: "no_um"}},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteVariation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	paths, err := WriteVariation(dir, testResult(42))
	require.NoError(t, err)

	var names []string
	for _, path := range paths {
		names = append(names, filepath.Base(path))
		assert.FileExists(t, path)
	}
	assert.Equal(t, []string{
		"schedule_seed42.json",
		"gap_report_seed42.json",
		"provider_summary_seed42.csv",
		"site_coverage_seed42.csv",
		"run_seed42.json",
	}, names)

	data, err := os.ReadFile(filepath.Join(dir, "schedule_seed42.json"))
	require.NoError(t, err)
	var schedule []allocator.ScheduledPeriod
	require.NoError(t, json.Unmarshal(data, &schedule))
	assert.Equal(t, testResult(42).Outcome.Schedule, schedule)
	assert.NotContains(t, string(data), "runId", "schedule file carries no run identity")

	summary := readCSV(t, filepath.Join(dir, "provider_summary_seed42.csv"))
	require.Len(t, summary, 2)
	row := make(map[string]string)
	for i, header := range summary[0] {
		row[header] = summary[1][i]
	}
	assert.Equal(t, "ADAMS, KATE", row["provider_name"])
	assert.Equal(t, "0.8", row["fte"])
	assert.Equal(t, "12.5", row["annual_weeks"])
	assert.Equal(t, "Cooper:2;Vineland:1", row["site_distribution"])
	assert.Equal(t, "moonlighter;new_hire", row["markers"])

	coverage := readCSV(t, filepath.Join(dir, "site_coverage_seed42.csv"))
	require.Len(t, coverage, 2)
	assert.Equal(t, []string{"Cooper", "zero-gap", "1", "1", "100.0", "1", "0", "0.0"}, coverage[1])

	data, err = os.ReadFile(filepath.Join(dir, "run_seed42.json"))
	require.NoError(t, err)
	var run map[string]any
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, "3f1c2a9e-8d4b-4c57-9a61-0e2f7b5d1c88", run["runId"])
	assert.Equal(t, float64(42), run["seed"])
	assert.Len(t, run["warnings"], 1)
	assert.Equal(t, []any{}, run["validationErrors"])
}

func TestWriteVariation_ScheduleIsStablePerSeed(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()

	first := testResult(7)
	second := testResult(7)
	second.RunID = "another-run"

	_, err := WriteVariation(dirA, first)
	require.NoError(t, err)
	_, err = WriteVariation(dirB, second)
	require.NoError(t, err)

	a, err := os.ReadFile(filepath.Join(dirA, "schedule_seed7.json"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, "schedule_seed7.json"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteVariation_NoOutcome(t *testing.T) {
	_, err := WriteVariation(t.TempDir(), services.VariationResult{Seed: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed 3 has no outcome")
}

func TestWriteComparison(t *testing.T) {
	dir := t.TempDir()
	second := testResult(99)
	second.Outcome.Success = false
	second.Outcome.ValidationErrors = []allocator.ValidationError{{Invariant: "availability", Provider: "ADAMS, KATE"}}

	path, err := WriteComparison(dir, []services.VariationResult{testResult(42), second})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ComparisonFileName), path)

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, "seed", records[0][0])
	assert.Equal(t, []string{"42", "3f1c2a9e-8d4b-4c57-9a61-0e2f7b5d1c88", "true", "1", "1", "1", "0", "0", "50.0", "2", "0"}, records[1])
	assert.Equal(t, "99", records[2][0])
	assert.Equal(t, "false", records[2][2])
	assert.Equal(t, "1", records[2][10])
}

func TestCSVExporter_RequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one header")
}
