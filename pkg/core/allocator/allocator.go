package allocator

import "errors"

// ErrNoRegistry is returned when Allocate is called without a built registry
var ErrNoRegistry = errors.New("allocation requires a registry")

// Phase names recorded in Stats.Phases
const (
	PhaseReserve    = "reserve"
	PhaseFairShare  = "fair_share"
	PhaseBehindPace = "behind_pace"
	PhaseSwap       = "swap"
)

// Allocator runs the phased fill over one BlockState with configurable criteria
type Allocator struct {
	criteria []Criterion
	state    *BlockState
	registry *Registry

	phases []PhaseStat
	swaps  int
}

// AllocationConfig contains the configuration for one seeded run
type AllocationConfig struct {
	// Registry is the normalized input. It is only read, so several
	// configs may share one registry across goroutines.
	Registry *Registry

	// Criteria to score candidates with (with their weights)
	Criteria []Criterion

	// Seed drives jitter and round ordering; equal seeds give equal schedules
	Seed uint64
}

// AllocationOutcome represents the result of one seeded run
type AllocationOutcome struct {
	Seed uint64

	// State is the final assignment state
	State *BlockState

	// Success is false when any hard constraint check failed on the final state.
	// Gaps alone do not clear it: an unfilled slot is reported, not an error.
	Success bool

	Schedule     []ScheduledPeriod
	Gaps         []Gap
	Providers    []ProviderSummary
	SiteCoverage []SiteCoverage
	Stats        Stats

	Warnings []Warning
	Excluded map[string][]string

	ValidationErrors []ValidationError
}

// InitAllocation builds a fresh state for the configured seed
func InitAllocation(config AllocationConfig) (*Allocator, error) {
	if config.Registry == nil {
		return nil, ErrNoRegistry
	}
	if len(config.Registry.Periods) == 0 {
		return nil, ErrNoPeriods
	}

	return &Allocator{
		criteria: config.Criteria,
		state:    NewState(config.Registry, config.Seed),
		registry: config.Registry,
	}, nil
}

// Allocate runs every phase in order and compiles the outcome:
//
//  1. reserve zero-gap slots, scarcest first, with look-ahead
//  2. fill within the fair-share cap
//  3. fill again with the cap lifted
//  4. relocate assignments into remaining gaps
//  5. compile schedule, gap report and summaries
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {
	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	allocator.runPhase(PhaseReserve, allocator.reserveCriticalSites)
	allocator.runPhase(PhaseFairShare, allocator.fillWithinFairShare)
	allocator.runPhase(PhaseBehindPace, allocator.fillBehindPace)
	allocator.runPhase(PhaseSwap, func() int {
		allocator.swaps = allocator.optimizeSwaps()
		return allocator.swaps
	})

	return allocator.buildOutcome(config.Seed), nil
}

// State exposes the allocator's working state, mainly for tests
func (a *Allocator) State() *BlockState {
	return a.state
}

// runPhase records how many placements a phase made and what it left unmet
func (a *Allocator) runPhase(name string, phase func() int) {
	placed := phase()
	a.phases = append(a.phases, PhaseStat{
		Phase:        name,
		Placed:       placed,
		Unmet:        a.state.TotalShortfall(),
		ZeroGapUnmet: a.state.tierShortfall(ZeroGap),
	})
}

// tierShortfall sums unmet demand over the sites of one tier
func (s *BlockState) tierShortfall(tier GapTolerance) int {
	total := 0
	for _, site := range s.Sites {
		if site.Tier != tier {
			continue
		}
		for _, period := range s.Periods {
			total += s.Shortfall(site, period)
		}
	}
	return total
}
