package services

import (
	"context"
	"time"

	"github.com/jakechorley/block-scheduler/internal/config"
	"github.com/jakechorley/block-scheduler/pkg/db"
)

// mockInputSource implements db.InputSource for testing
type mockInputSource struct {
	providers []db.ProviderRow
	tags      []db.TagRow
	demand    []db.SiteDemandRow

	providersErr error
}

func (m *mockInputSource) GetProviders(ctx context.Context) ([]db.ProviderRow, error) {
	if m.providersErr != nil {
		return nil, m.providersErr
	}
	return m.providers, nil
}

func (m *mockInputSource) GetProviderTags(ctx context.Context) ([]db.TagRow, error) {
	return m.tags, nil
}

func (m *mockInputSource) GetSiteDemand(ctx context.Context) ([]db.SiteDemandRow, error) {
	return m.demand, nil
}

// mockAvailability implements db.AvailabilitySource for testing
type mockAvailability struct {
	dates []db.UnavailableDate
	err   error
}

func (m *mockAvailability) GetUnavailableDates(ctx context.Context) ([]db.UnavailableDate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dates, nil
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testConfig() *config.Config {
	return &config.Config{
		Block: config.Block{Start: "2026-03-02", End: "2026-03-15"},
		Seeds: []uint64{42},
		Sites: []config.Site{
			{Name: "Cooper", Group: "cooper", Tier: config.TierZeroGap},
			{Name: "Vineland", Group: "vineland", Tier: config.TierDemandAbsorbing},
		},
		Source: config.Source{Kind: config.SourceCSV, CSVDir: "tables"},
	}
}

func providerRow(name string, weeks, weekends float64) db.ProviderRow {
	return db.ProviderRow{
		Name:           name,
		ShiftType:      "Days",
		FTE:            1,
		AnnualWeeks:    weeks,
		AnnualWeekends: weekends,
		Extra:          map[string]string{"pct_cooper": "50%", "pct_vineland": "0.5"},
	}
}

func testSource() *mockInputSource {
	return &mockInputSource{
		providers: []db.ProviderRow{
			providerRow("ADAMS, KATE", 12, 12),
			providerRow("BROWN, LEE", 12, 12),
			providerRow("CHEN, MAY", 12, 12),
			providerRow("DIAZ, ANA", 12, 12),
		},
		tags: []db.TagRow{
			{Provider: "ADAMS, KATE", Tag: "no_um"},
		},
		demand: []db.SiteDemandRow{
			{Site: "Cooper", DayType: "weekday", ProvidersNeeded: 1},
			{Site: "Cooper", DayType: "weekend", ProvidersNeeded: 1},
			{Site: "Vineland", DayType: "weekday", ProvidersNeeded: 1},
			{Site: "Vineland", DayType: "swing", ProvidersNeeded: 1},
		},
	}
}
