package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/block-scheduler/internal/config"
	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
	"github.com/jakechorley/block-scheduler/pkg/core/services"
	"github.com/jakechorley/block-scheduler/pkg/db"
)

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected []uint64
		wantErr  bool
	}{
		{"empty", nil, nil, false},
		{"separate values", []string{"42", "7"}, []uint64{42, 7}, false},
		{"comma list", []string{"42,7, 99"}, []uint64{42, 7, 99}, false},
		{"blank parts ignored", []string{"42,,7,"}, []uint64{42, 7}, false},
		{"negative", []string{"-1"}, nil, true},
		{"not a number", []string{"abc"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds, err := parseSeeds(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seeds)
		})
	}
}

func TestComparisonRows(t *testing.T) {
	results := []services.VariationResult{
		{Seed: 42, Outcome: &allocator.AllocationOutcome{
			Stats: allocator.Stats{Assignments: 10, TotalGaps: 2, ZeroGapGaps: 1, CoveragePct: 83.333, Swaps: 3},
		}},
		{Seed: 7, Outcome: &allocator.AllocationOutcome{
			ValidationErrors: []allocator.ValidationError{{Invariant: "availability"}, {Invariant: "capacity"}},
		}},
	}

	rows := comparisonRows(results)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"42", "10", "2", "1", "83.3", "3", "yes"}, rows[0])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "2 errors", rows[1][6])

	rendered := renderComparison(results)
	for _, header := range comparisonHeaders {
		assert.Contains(t, rendered, header)
	}
	assert.Contains(t, rendered, "83.3")
}

func TestProviderRows(t *testing.T) {
	rows := providerRows([]services.ProviderView{
		{
			Name:              "ADAMS, KATE",
			ShiftCategory:     "Days",
			FTE:               0.8,
			CapacityWeeks:     6,
			CapacityWeekends:  5,
			FairShareWeeks:    2,
			FairShareWeekends: 1,
			EligibleSites:     []string{"Cooper", "Vineland"},
			Markers:           []string{"new_hire"},
			UnavailableDays:   3,
		},
		{Name: "BROWN, LEE"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ADAMS, KATE", "Days", "0.8", "2/6", "1/5", "Cooper, Vineland", "new_hire", "3"}, rows[0])
	assert.Equal(t, []string{"BROWN, LEE", "-", "0", "0/0", "0/0", "-", "-", "0"}, rows[1])
}

func TestFormatReport(t *testing.T) {
	report := &services.InputReport{
		Providers: 3,
		Sites:     2,
		Periods:   8,
		Warnings: map[allocator.WarningKind][]allocator.Warning{
			allocator.WarningUnknownTag: {{Kind: allocator.WarningUnknownTag, Subject: "ADAMS, KATE", Detail: "mystery: unknown tag"}},
		},
		Kinds:    []allocator.WarningKind{allocator.WarningUnknownTag},
		Excluded: map[string][]string{allocator.ExcludedDoNotSchedule: {"EVANS, SAM"}},
	}

	out := formatReport(report)
	assert.Contains(t, out, "Providers:      3")
	assert.Contains(t, out, "unknown_tag (1)")
	assert.Contains(t, out, "- ADAMS, KATE: mystery: unknown tag")
	assert.Contains(t, out, "do_not_schedule: EVANS, SAM")

	clean := formatReport(&services.InputReport{Warnings: map[allocator.WarningKind][]allocator.Warning{}})
	assert.Contains(t, clean, "No warnings")
	assert.NotContains(t, clean, "Excluded providers")
}

func TestConnectSources_CSV(t *testing.T) {
	dir := t.TempDir()
	writeTab := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(contents), 0644))
	}
	writeTab("Providers", strings.Join([]string{
		"provider_name,shift_type,fte,annual_weeks,annual_weekends,pct_cooper",
		"\"ADAMS, KATE\",Days,1,12,12,100%",
	}, "\n"))
	writeTab("Provider Tags", "provider_name,position,tag,rule\n")
	writeTab("Sites", "site,day_type,providers_needed\nCooper,weekday,1\nCooper,weekend,1\n")

	app := &AppContext{
		Cfg: &config.Config{
			Block: config.Block{Start: "2026-03-02", End: "2026-03-15"},
			Sites: []config.Site{{Name: "Cooper", Group: "cooper", Tier: config.TierZeroGap}},
			Source: config.Source{
				Kind:         config.SourceCSV,
				CSVDir:       dir,
				ProvidersTab: "Providers",
				TagsTab:      "Provider Tags",
				SitesTab:     "Sites",
			},
		},
		Env:    "test",
		Logger: zap.NewNop(),
		Ctx:    context.Background(),
	}

	require.NoError(t, app.ConnectSources())
	assert.IsType(t, &db.DB{}, app.Source)
	assert.Nil(t, app.Availability)
	assert.Nil(t, app.Postgres)

	inputs, err := app.LoadInputs()
	require.NoError(t, err)
	require.Len(t, inputs.Registry.Providers, 1)
	assert.Equal(t, map[string]float64{"cooper": 1}, inputs.Registry.Providers[0].Allocation)
	assert.Len(t, inputs.Registry.Demand, 2)

	app.Close()
}

func TestConnectSources_AvailabilityDirectory(t *testing.T) {
	app := &AppContext{
		Cfg: &config.Config{
			Source:          config.Source{Kind: config.SourceCSV, CSVDir: t.TempDir()},
			AvailabilityDir: t.TempDir(),
		},
		Logger: zap.NewNop(),
		Ctx:    context.Background(),
	}

	require.NoError(t, app.ConnectSources())
	assert.IsType(t, &services.DocumentAvailability{}, app.Availability)
}

func TestConnectSources_UnknownKind(t *testing.T) {
	app := &AppContext{
		Cfg:    &config.Config{Source: config.Source{Kind: "ftp"}},
		Logger: zap.NewNop(),
		Ctx:    context.Background(),
	}

	err := app.ConnectSources()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source kind "ftp"`)
}
