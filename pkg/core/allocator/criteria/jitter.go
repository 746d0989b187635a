package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// JitterCriterion breaks ties with a uniform draw in [-2, 2) from the run's
// seeded source. Every call consumes one draw, so equal seeds give equal runs.
type JitterCriterion struct {
	affinityWeight float64
}

// NewJitterCriterion creates a new JitterCriterion with the given affinity weight
func NewJitterCriterion(affinityWeight float64) *JitterCriterion {
	return &JitterCriterion{affinityWeight: affinityWeight}
}

func (c *JitterCriterion) Name() string {
	return "Jitter"
}

func (c *JitterCriterion) CalculateAffinity(state *allocator.BlockState, candidate allocator.Candidate) float64 {
	return state.Rand.Float64()*4 - 2
}

func (c *JitterCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
