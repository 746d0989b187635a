package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/block-scheduler/pkg/sheetssql"
)

type mockValuesClient struct {
	tabs map[string][][]interface{}
}

func (m *mockValuesClient) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	return m.tabs[sheetRange], nil
}

var testTabs = Tabs{Providers: "Providers", Tags: "Provider Tags", Sites: "Sites"}

func newTestDB(tabs map[string][][]interface{}) *DB {
	return NewDB(sheetssql.NewDB(&mockValuesClient{tabs: tabs}, "sheet123"), testTabs)
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestGetProviders(t *testing.T) {
	db := newTestDB(map[string][][]interface{}{
		"Providers": {
			{"provider_name", "shift_type", "fte", "annual_weeks", "annual_weekends", "weeks_remaining", "pct_cooper", "vineland"},
			{"SMITH, JOHN", "Days", "1.0", "14", "14", "10", "50%", "0.5"},
			{"", "Days", "1.0", "14", "14", "", "", ""},
			{"JONES, KATE", "Nights", "0.5", "7", "7", "", "", ""},
		},
	})

	providers, err := db.GetProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, providers, 2)

	smith := providers[0]
	assert.Equal(t, "SMITH, JOHN", smith.Name)
	assert.Equal(t, "Days", smith.ShiftType)
	assert.Equal(t, 14.0, smith.AnnualWeeks)

	weeks, weekends := smith.Prior()
	assert.Equal(t, 4.0, weeks)
	assert.Zero(t, weekends)

	allocation, problems := smith.Allocation([]string{"cooper", "vineland", "inspira"})
	assert.Empty(t, problems)
	assert.Equal(t, map[string]float64{"cooper": 0.5, "vineland": 0.5}, allocation)

	assert.Equal(t, "JONES, KATE", providers[1].Name)
	assert.Equal(t, 4, providers[1].Row)
}

func TestGetProviders_MissingColumn(t *testing.T) {
	db := newTestDB(map[string][][]interface{}{
		"Providers": {
			{"provider_name", "shift_type", "fte", "annual_weeks"},
			{"SMITH, JOHN", "Days", "1.0", "14"},
		},
	})

	_, err := db.GetProviders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get providers")
	assert.Contains(t, err.Error(), "annual_weekends")
}

func TestProviderRow_Prior(t *testing.T) {
	row := ProviderRow{
		AnnualWeeks:       14,
		AnnualWeekends:    10,
		PriorWeeks:        floatPtr(3),
		WeeksRemaining:    floatPtr(1),
		WeekendsRemaining: floatPtr(12),
	}

	weeks, weekends := row.Prior()
	assert.Equal(t, 3.0, weeks, "explicit prior wins over remaining")
	assert.Zero(t, weekends, "remaining above annual never gives a negative prior")
}

func TestProviderRow_AllocationProblems(t *testing.T) {
	row := ProviderRow{Row: 7, Extra: map[string]string{"pct_cooper": "half", "pct_inspira": "0"}}

	allocation, problems := row.Allocation([]string{"cooper", "inspira"})
	assert.Empty(t, allocation)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "row 7")
	assert.Contains(t, problems[0], "cooper")
}

func TestGetProviderTags_OrderedPerProvider(t *testing.T) {
	db := newTestDB(map[string][][]interface{}{
		"Provider Tags": {
			{"provider_name", "tag", "rule", "position"},
			{"SMITH, JOHN", "no_um", "", ""},
			{"JONES, KATE", "pct_override", "cooper: 60%", "2"},
			{"SMITH, JOHN", "note", "prefers Cooper", ""},
			{"JONES, KATE", "no_vineland", "", "1"},
			{"", "note", "orphan", ""},
		},
	})

	rows, err := db.GetProviderTags(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "SMITH, JOHN", rows[0].Provider)
	assert.Equal(t, "no_um", rows[0].Tag)
	assert.Equal(t, "note", rows[1].Tag)
	assert.Equal(t, "no_vineland", rows[2].Tag)
	assert.Equal(t, "pct_override", rows[3].Tag)
	assert.Equal(t, "cooper: 60%", rows[3].Rule)
}

func TestGetSiteDemand(t *testing.T) {
	db := newTestDB(map[string][][]interface{}{
		"Sites": {
			{"site", "day_type", "providers_needed"},
			{"Cooper", "weekday", "2"},
			{"Cooper", "weekend", "1"},
			{"", "", ""},
			{"Vineland", "swing", "1"},
		},
	})

	rows, err := db.GetSiteDemand(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, SiteDemandRow{Row: 2, Site: "Cooper", DayType: "weekday", ProvidersNeeded: 2}, rows[0])
	assert.Equal(t, "swing", rows[2].DayType)
}

func TestGetSiteDemand_BadNumber(t *testing.T) {
	db := newTestDB(map[string][][]interface{}{
		"Sites": {
			{"site", "day_type", "providers_needed"},
			{"Cooper", "weekday", "two"},
		},
	})

	_, err := db.GetSiteDemand(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table Sites row 2 column providers_needed")
}
