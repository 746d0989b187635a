package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// StretchPairingCriterion keeps a provider's weekend at the site of their
// same-week weekday period, so the two join into one stretch.
//
// Affinity:
//   - weekday periods: 0
//   - weekend, weekday worked at the same site: 1
//   - weekend, weekday worked at another site: -0.5
//   - weekend, no weekday that week: 0
type StretchPairingCriterion struct {
	affinityWeight float64
}

// NewStretchPairingCriterion creates a new StretchPairingCriterion with the given affinity weight
func NewStretchPairingCriterion(affinityWeight float64) *StretchPairingCriterion {
	return &StretchPairingCriterion{affinityWeight: affinityWeight}
}

func (c *StretchPairingCriterion) Name() string {
	return "StretchPairing"
}

func (c *StretchPairingCriterion) CalculateAffinity(state *allocator.BlockState, candidate allocator.Candidate) float64 {
	if candidate.Period.Kind != allocator.Weekend {
		return 0
	}

	site, ok := state.WeekdaySiteInWeek(candidate.Provider, candidate.Period.WeekNumber)
	switch {
	case !ok:
		return 0
	case site == candidate.Site.Name:
		return 1
	default:
		return -0.5
	}
}

func (c *StretchPairingCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
