package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testSites has one site per tier, each in its own allocation group
func testSites() []SiteConfig {
	return []SiteConfig{
		{Name: "Cooper", Group: "cooper", Tier: ZeroGap},
		{Name: "Mullica Hill", Group: "inspira", Tier: LimitedGap},
		{Name: "Vineland", Group: "vineland", Tier: DemandAbsorbing},
	}
}

func demand(site string, weekday, weekend int) []DemandInput {
	return []DemandInput{
		{Site: site, Kind: Weekday, Needed: weekday},
		{Site: site, Kind: Weekend, Needed: weekend},
	}
}

// testProvider splits the allocation evenly over the given groups
func testProvider(name string, weeks, weekends float64, groups ...string) ProviderInput {
	allocation := make(map[string]float64, len(groups))
	for _, g := range groups {
		allocation[g] = 1 / float64(len(groups))
	}
	return ProviderInput{
		Name:           name,
		ShiftCategory:  "Days",
		FTE:            1,
		AnnualWeeks:    weeks,
		AnnualWeekends: weekends,
		Allocation:     allocation,
	}
}

// twoWeeks is the default test block: periods 0-3 are
// Wk 1 (Mar 2-6), WE 1 (Mar 7-8), Wk 2 (Mar 9-13), WE 2 (Mar 14-15)
func twoWeeks(input *RegistryInput) {
	input.BlockStart = mustDate("2026-03-02")
	input.BlockEnd = mustDate("2026-03-15")
}

func newTestRegistry(t *testing.T, input RegistryInput) *Registry {
	t.Helper()
	if input.BlockStart.IsZero() {
		twoWeeks(&input)
	}
	if input.Sites == nil {
		input.Sites = testSites()
	}
	reg, err := BuildRegistry(input)
	require.NoError(t, err)
	return reg
}

// newTestAllocator builds an allocator with no scoring criteria, so every
// candidate ties and pool (name) order decides
func newTestAllocator(t *testing.T, input RegistryInput) *Allocator {
	t.Helper()
	a, err := InitAllocation(AllocationConfig{Registry: newTestRegistry(t, input), Seed: 42})
	require.NoError(t, err)
	return a
}

// preferCriterion scores one provider above everyone else
type preferCriterion struct {
	name string
}

func (c preferCriterion) Name() string { return "Prefer" }

func (c preferCriterion) CalculateAffinity(state *BlockState, candidate Candidate) float64 {
	if candidate.Provider.Name == c.name {
		return 1
	}
	return 0
}

func (c preferCriterion) AffinityWeight() float64 { return 10 }
