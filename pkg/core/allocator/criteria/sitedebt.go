package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// SiteDebtCriterion favours the sites where a provider is furthest behind
// their allocation. Debt is fraction x capacity for the period's kind minus
// the periods already worked at the site. Negative once the provider is ahead.
type SiteDebtCriterion struct {
	affinityWeight float64
}

// NewSiteDebtCriterion creates a new SiteDebtCriterion with the given affinity weight
func NewSiteDebtCriterion(affinityWeight float64) *SiteDebtCriterion {
	return &SiteDebtCriterion{affinityWeight: affinityWeight}
}

func (c *SiteDebtCriterion) Name() string {
	return "SiteDebt"
}

func (c *SiteDebtCriterion) CalculateAffinity(state *allocator.BlockState, candidate allocator.Candidate) float64 {
	p := candidate.Provider
	target := p.Fraction(candidate.Site) * float64(p.Capacity[candidate.Period.Kind])
	return target - float64(state.SiteCount(p, candidate.Site.Name))
}

func (c *SiteDebtCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
