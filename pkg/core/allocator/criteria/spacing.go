package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// SpacingCriterion optimizes for periods further from the provider's last assignment.
//
// Affinity:
//   - period index minus the provider's latest assigned period index
//   - providers with nothing assigned yet get the period index plus SpacingFirstAssignment,
//     so they outrank anyone already working
//   - the distance is signed: filling a period before the latest assignment scores negative
type SpacingCriterion struct {
	affinityWeight float64
}

// NewSpacingCriterion creates a new SpacingCriterion with the given affinity weight
func NewSpacingCriterion(affinityWeight float64) *SpacingCriterion {
	return &SpacingCriterion{affinityWeight: affinityWeight}
}

func (c *SpacingCriterion) Name() string {
	return "Spacing"
}

func (c *SpacingCriterion) CalculateAffinity(state *allocator.BlockState, candidate allocator.Candidate) float64 {
	last := state.LastAssignedPeriod(candidate.Provider)
	if last < 0 {
		return float64(candidate.Period.Index + SpacingFirstAssignment)
	}
	return float64(candidate.Period.Index - last)
}

func (c *SpacingCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
