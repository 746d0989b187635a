package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// CompressionCriterion penalizes lengthening a provider's longest run past the
// stretch soft limit while the block still has room to spread their periods.
//
// Slack is the number of periods of the kind in the block minus the
// provider's capacity for that kind:
//   - slack >= 3: -severe
//   - slack >= 1: -mild
//   - slack 0: no penalty, compression is the only way to reach capacity
//
// A weekend joining a weekday already worked that week is a normal stretch
// and is never penalized.
type CompressionCriterion struct {
	affinityWeight float64
	severe         float64
	mild           float64
}

// NewCompressionCriterion creates a new CompressionCriterion with the given
// weight and the penalties for plenty of slack and little slack
func NewCompressionCriterion(affinityWeight, severe, mild float64) *CompressionCriterion {
	return &CompressionCriterion{
		affinityWeight: affinityWeight,
		severe:         severe,
		mild:           mild,
	}
}

func (c *CompressionCriterion) Name() string {
	return "Compression"
}

func (c *CompressionCriterion) CalculateAffinity(state *allocator.BlockState, candidate allocator.Candidate) float64 {
	p := candidate.Provider
	period := candidate.Period

	if period.Kind == allocator.Weekend {
		if _, paired := state.WeekdaySiteInWeek(p, period.WeekNumber); paired {
			return 0
		}
	}

	run := state.RunWith(p, period)
	if run <= state.CurrentLongestRun(p) || run <= state.Settings.StretchSoftLimit {
		return 0
	}

	slack := state.PeriodCount(period.Kind) - p.Capacity[period.Kind]
	switch {
	case slack >= 3:
		return -c.severe
	case slack >= 1:
		return -c.mild
	}
	return 0
}

func (c *CompressionCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}
