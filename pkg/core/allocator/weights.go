package allocator

// Built-in weights applied by the phases themselves. Scoring criteria carry their own.
const (
	// WeightDedicatedProvider is added in Phase 1 for providers with at most
	// DedicatedSiteLimit eligible sites, keeping generalists free for later demand
	WeightDedicatedProvider = 30

	// DedicatedSiteLimit is the eligible-site count at or below which a provider is dedicated
	DedicatedSiteLimit = 2

	// ZeroGapShortfallWeight multiplies zero-gap shortfall when Phase 3 orders weeks
	ZeroGapShortfallWeight = 3
)
