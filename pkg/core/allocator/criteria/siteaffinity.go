package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// SiteAffinityCriterion prefers the sites carrying more of the provider's allocation
type SiteAffinityCriterion struct {
	affinityWeight float64
}

// NewSiteAffinityCriterion creates a new SiteAffinityCriterion with the given affinity weight
func NewSiteAffinityCriterion(affinityWeight float64) *SiteAffinityCriterion {
	return &SiteAffinityCriterion{affinityWeight: affinityWeight}
}

func (c *SiteAffinityCriterion) Name() string {
	return "SiteAffinity"
}

func (c *SiteAffinityCriterion) CalculateAffinity(state *allocator.BlockState, candidate allocator.Candidate) float64 {
	return candidate.Provider.Fraction(candidate.Site)
}

func (c *SiteAffinityCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
