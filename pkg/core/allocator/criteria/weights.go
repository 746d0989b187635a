package criteria

import "github.com/jakechorley/block-scheduler/pkg/core/allocator"

// Default affinity weights
const (
	WeightStretchPairing = 100
	WeightSiteDebt       = 5
	WeightSpacing        = 3
	WeightCompression    = 1
	WeightSiteAffinity   = 2
	WeightJitter         = 1

	// Compression penalties, already scaled to score units
	CompressionSevere = 150
	CompressionMild   = 50

	// Spacing given to a provider with no assignment yet, added to the period index
	SpacingFirstAssignment = 10
)

// DefaultCriteria returns the standard scoring terms with their default weights
func DefaultCriteria() []allocator.Criterion {
	return []allocator.Criterion{
		NewStretchPairingCriterion(WeightStretchPairing),
		NewSiteDebtCriterion(WeightSiteDebt),
		NewSpacingCriterion(WeightSpacing),
		NewCompressionCriterion(WeightCompression, CompressionSevere, CompressionMild),
		NewSiteAffinityCriterion(WeightSiteAffinity),
		NewJitterCriterion(WeightJitter),
	}
}
