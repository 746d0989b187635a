package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/block-scheduler/pkg/core/allocator"
)

// Period indices of the four-week test block starting Monday 2026-03-02
const (
	week1    = 0 // Mar 2-6
	weekend1 = 1 // Mar 7-8
	week2    = 2 // Mar 9-13
	weekend2 = 3 // Mar 14-15
)

func mustDate(s string) time.Time {
	d, err := allocator.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func provider(name string, weeks, weekends float64) allocator.ProviderInput {
	return allocator.ProviderInput{
		Name:           name,
		ShiftCategory:  "Days",
		FTE:            1,
		AnnualWeeks:    weeks,
		AnnualWeekends: weekends,
		Allocation:     map[string]float64{"cooper": 0.5, "inspira": 0.5},
	}
}

// newTestState builds a four-week block with two sites and the given providers
func newTestState(t *testing.T, providers ...allocator.ProviderInput) *allocator.BlockState {
	t.Helper()

	reg, err := allocator.BuildRegistry(allocator.RegistryInput{
		BlockStart: mustDate("2026-03-02"),
		BlockEnd:   mustDate("2026-03-29"),
		Providers:  providers,
		Sites: []allocator.SiteConfig{
			{Name: "Cooper", Group: "cooper", Tier: allocator.ZeroGap},
			{Name: "Mullica Hill", Group: "inspira", Tier: allocator.LimitedGap},
		},
		Demand: []allocator.DemandInput{
			{Site: "Cooper", Kind: allocator.Weekday, Needed: 1},
			{Site: "Cooper", Kind: allocator.Weekend, Needed: 1},
			{Site: "Mullica Hill", Kind: allocator.Weekday, Needed: 1},
			{Site: "Mullica Hill", Kind: allocator.Weekend, Needed: 1},
		},
	})
	require.NoError(t, err)

	return allocator.NewState(reg, 42)
}

func candidate(state *allocator.BlockState, name string, periodIdx int, site string) allocator.Candidate {
	return allocator.Candidate{
		Provider: state.Provider(name),
		Period:   state.Periods[periodIdx],
		Site:     state.Site(site),
	}
}
