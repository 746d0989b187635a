package allocator

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jakechorley/block-scheduler/pkg/core/tags"
)

// PeriodKind distinguishes weekday (Mon-Fri) periods from weekend (Sat-Sun) periods.
// Used as an index into the per-kind arrays on Site and Provider.
type PeriodKind int

const (
	Weekday PeriodKind = iota
	Weekend
)

func (k PeriodKind) String() string {
	if k == Weekend {
		return "weekend"
	}
	return "weekday"
}

// ParsePeriodKind parses "weekday" or "weekend" (case-insensitive)
func ParsePeriodKind(s string) (PeriodKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekday":
		return Weekday, true
	case "weekend":
		return Weekend, true
	}
	return Weekday, false
}

// GapTolerance classifies a site by how much unfilled demand it can absorb.
// Lower values are filled first.
type GapTolerance int

const (
	// ZeroGap sites must be filled every period
	ZeroGap GapTolerance = iota

	// LimitedGap sites can carry an occasional gap
	LimitedGap

	// DemandAbsorbing sites soak up whatever capacity is left
	DemandAbsorbing
)

func (g GapTolerance) String() string {
	switch g {
	case ZeroGap:
		return "zero-gap"
	case LimitedGap:
		return "limited-gap"
	case DemandAbsorbing:
		return "demand-absorbing"
	}
	return fmt.Sprintf("tier-%d", int(g))
}

// ParseGapTolerance parses the configuration form of a tier
func ParseGapTolerance(s string) (GapTolerance, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero-gap":
		return ZeroGap, true
	case "limited-gap":
		return LimitedGap, true
	case "demand-absorbing":
		return DemandAbsorbing, true
	}
	return ZeroGap, false
}

// Period is one weekday or weekend unit of the block. Immutable once built.
type Period struct {
	// Index in BlockState.Periods
	Index int

	Kind PeriodKind

	// WeekNumber is 1-based and shared by the weekday and weekend periods of the same week
	WeekNumber int

	// Dates in calendar order, at midnight UTC
	Dates []time.Time

	// Holiday names the holiday falling inside this period, if any
	Holiday string

	// days holds the day numbers of Dates, for adjacency arithmetic
	days []int
}

// Label renders the period for reports, e.g. "Wk 3 (Mar 16-Mar 20)" or "WE 3 (Mar 21-Mar 22)"
func (p *Period) Label() string {
	prefix := "Wk"
	if p.Kind == Weekend {
		prefix = "WE"
	}
	first := p.Dates[0].Format("Jan 2")
	last := p.Dates[len(p.Dates)-1].Format("Jan 2")
	return fmt.Sprintf("%s %d (%s-%s)", prefix, p.WeekNumber, first, last)
}

// DateStrings returns the period's dates as YYYY-MM-DD strings
func (p *Period) DateStrings() []string {
	out := make([]string, len(p.Dates))
	for i, d := range p.Dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}

// Site is a facility with per-kind demand
type Site struct {
	Name string

	// Group is the allocation group whose fraction decides eligibility
	Group string

	Tier GapTolerance

	// Demand is the headcount needed per period, indexed by PeriodKind
	Demand [2]int
}

// DemandFor returns the headcount needed in a period of the given kind
func (s *Site) DemandFor(kind PeriodKind) int {
	return s.Demand[kind]
}

// Provider is the normalized, read-only record built by the registry.
// Assignment counters live in BlockState, never here.
type Provider struct {
	// Index is the provider's position in BlockState.Providers
	Index int

	Name          string
	ShiftCategory string
	FTE           float64

	// Annual, Prior and Remaining are indexed by PeriodKind
	Annual    [2]float64
	Prior     [2]float64
	Remaining [2]float64

	// Capacity is floor(Remaining): the hard ceiling for the block
	Capacity [2]int

	// FairShare is min(ceil(Annual/blocksPerYear), Capacity); enforced in Phase 2 only
	FairShare [2]int

	// Allocation maps allocation group to fraction (after pct_override tags)
	Allocation map[string]float64

	Tags    []tags.Tag
	Markers tags.Markers

	// EligibleSites in site order (tier, then name)
	EligibleSites []string

	eligible    map[string]bool
	unavailable map[int]bool
}

// IsEligible reports whether site is in the provider's eligible-site set
func (p *Provider) IsEligible(site string) bool {
	return p.eligible[site]
}

// Fraction returns the provider's allocation fraction for the site's group
func (p *Provider) Fraction(site *Site) float64 {
	return p.Allocation[site.Group]
}

// IsAvailable reports whether the provider is available on every date of the period
func (p *Provider) IsAvailable(period *Period) bool {
	for _, day := range period.days {
		if p.unavailable[day] {
			return false
		}
	}
	return true
}

// UnavailableDayCount returns the number of unavailable dates on record
func (p *Provider) UnavailableDayCount() int {
	return len(p.unavailable)
}

// ConflictPair is two providers who may never work in the same week number
type ConflictPair struct {
	A *Provider
	B *Provider
}

// Assignment is one placed (provider, period, site) fact
type Assignment struct {
	Provider    *Provider
	PeriodIndex int
	Site        string
}

// Settings are the tunable limits of a run
type Settings struct {
	// BlocksPerYear divides annual targets into the fair-share cap
	BlocksPerYear int

	// MaxConsecutiveDays is the hard ceiling on a run of calendar-adjacent assigned days
	MaxConsecutiveDays int

	// StretchSoftLimit is the run length above which compression penalties and
	// extended-stretch annotations apply
	StretchSoftLimit int

	// MaxSwapRounds bounds the Phase 4 local search
	MaxSwapRounds int

	// WeightDifficultyByCapacity orders Phase 2 weeks by the remaining weekday
	// capacity of available providers instead of their headcount
	WeightDifficultyByCapacity bool
}

// DefaultSettings returns the standard limits
func DefaultSettings() Settings {
	return Settings{
		BlocksPerYear:      3,
		MaxConsecutiveDays: 12,
		StretchSoftLimit:   7,
		MaxSwapRounds:      3,
	}
}

// providerLoad tracks what a provider has been given so far
type providerLoad struct {
	// periods maps period index to assigned site
	periods map[int]string

	// count of assignments per PeriodKind
	count [2]int

	// siteCounts counts assignments per site, both kinds combined
	siteCounts map[string]int

	// days holds every assigned day number
	days map[int]bool
}

func newProviderLoad() *providerLoad {
	return &providerLoad{
		periods:    make(map[int]string),
		siteCounts: make(map[string]int),
		days:       make(map[int]bool),
	}
}

// BlockState is the single mutable assignment state shared by every phase
type BlockState struct {
	// Periods of the block in calendar order
	Periods []*Period

	// Providers eligible for this run, sorted by name
	Providers []*Provider

	// Sites sorted by tier, then name
	Sites []*Site

	ConflictPairs []ConflictPair

	Settings Settings

	// Rand is the run's seeded source; used for jitter and round ordering only
	Rand *rand.Rand

	periodAssignments [][]Assignment
	filled            map[string][]int
	loads             []*providerLoad
	siteByName        map[string]*Site
	providerByName    map[string]*Provider
	sitePools         map[string][]*Provider
	partners          [][]*Provider
	periodsByWeek     map[int][]*Period
	weekNumbers       []int
	periodCount       [2]int
}

// newBlockState wires the lookup tables over already-built periods, providers and sites.
// Provider.Index must already match each provider's position; inputs are only read,
// so one Registry can back several states at once.
func newBlockState(periods []*Period, providers []*Provider, sites []*Site, pairs []ConflictPair, settings Settings, rng *rand.Rand) *BlockState {
	state := &BlockState{
		Periods:           periods,
		Providers:         providers,
		Sites:             sites,
		ConflictPairs:     pairs,
		Settings:          settings,
		Rand:              rng,
		periodAssignments: make([][]Assignment, len(periods)),
		filled:            make(map[string][]int, len(sites)),
		loads:             make([]*providerLoad, len(providers)),
		siteByName:        make(map[string]*Site, len(sites)),
		providerByName:    make(map[string]*Provider, len(providers)),
		sitePools:         make(map[string][]*Provider, len(sites)),
		partners:          make([][]*Provider, len(providers)),
		periodsByWeek:     make(map[int][]*Period),
	}

	for _, site := range sites {
		state.siteByName[site.Name] = site
		state.filled[site.Name] = make([]int, len(periods))
	}

	for i, provider := range providers {
		state.loads[i] = newProviderLoad()
		state.providerByName[provider.Name] = provider
		for _, site := range provider.EligibleSites {
			state.sitePools[site] = append(state.sitePools[site], provider)
		}
	}

	for _, pair := range pairs {
		state.partners[pair.A.Index] = append(state.partners[pair.A.Index], pair.B)
		state.partners[pair.B.Index] = append(state.partners[pair.B.Index], pair.A)
	}

	for _, period := range periods {
		if _, seen := state.periodsByWeek[period.WeekNumber]; !seen {
			state.weekNumbers = append(state.weekNumbers, period.WeekNumber)
		}
		state.periodsByWeek[period.WeekNumber] = append(state.periodsByWeek[period.WeekNumber], period)
		state.periodCount[period.Kind]++
	}

	return state
}

// Site returns the site with the given name, or nil
func (s *BlockState) Site(name string) *Site {
	return s.siteByName[name]
}

// Provider returns the provider with the given name, or nil
func (s *BlockState) Provider(name string) *Provider {
	return s.providerByName[name]
}

// SitePool returns the providers eligible for a site, sorted by name
func (s *BlockState) SitePool(site string) []*Provider {
	return s.sitePools[site]
}

// Partners returns the conflict partners of a provider
func (s *BlockState) Partners(p *Provider) []*Provider {
	return s.partners[p.Index]
}

// WeekNumbers returns the block's week numbers in ascending order
func (s *BlockState) WeekNumbers() []int {
	return s.weekNumbers
}

// PeriodsInWeek returns the periods sharing a week number, in index order
func (s *BlockState) PeriodsInWeek(week int) []*Period {
	return s.periodsByWeek[week]
}

// PeriodCount returns the number of periods of a kind in the block
func (s *BlockState) PeriodCount(kind PeriodKind) int {
	return s.periodCount[kind]
}

// Assignments returns the assignments of a period in placement order
func (s *BlockState) Assignments(periodIdx int) []Assignment {
	return s.periodAssignments[periodIdx]
}

// Filled returns how many providers are placed at a site in a period
func (s *BlockState) Filled(site string, periodIdx int) int {
	counts, ok := s.filled[site]
	if !ok {
		return 0
	}
	return counts[periodIdx]
}

// Shortfall returns the unmet demand of a site in a period (never negative)
func (s *BlockState) Shortfall(site *Site, period *Period) int {
	return max(site.DemandFor(period.Kind)-s.Filled(site.Name, period.Index), 0)
}

// TotalShortfall sums the unmet demand over every (period, site) pair
func (s *BlockState) TotalShortfall() int {
	total := 0
	for _, period := range s.Periods {
		for _, site := range s.Sites {
			total += s.Shortfall(site, period)
		}
	}
	return total
}

// MaxDemand is the largest per-period headcount of any site
func (s *BlockState) MaxDemand() int {
	maxDemand := 0
	for _, site := range s.Sites {
		maxDemand = max(maxDemand, site.Demand[Weekday], site.Demand[Weekend])
	}
	return maxDemand
}

// AssignedSite returns where a provider is placed in a period
func (s *BlockState) AssignedSite(p *Provider, periodIdx int) (string, bool) {
	site, ok := s.loads[p.Index].periods[periodIdx]
	return site, ok
}

// AssignedCount returns how many periods of a kind the provider holds
func (s *BlockState) AssignedCount(p *Provider, kind PeriodKind) int {
	return s.loads[p.Index].count[kind]
}

// SiteCount returns how many periods (both kinds) the provider holds at a site
func (s *BlockState) SiteCount(p *Provider, site string) int {
	return s.loads[p.Index].siteCounts[site]
}

// SiteCounts returns a copy of the provider's per-site counts
func (s *BlockState) SiteCounts(p *Provider) map[string]int {
	out := make(map[string]int, len(s.loads[p.Index].siteCounts))
	for site, n := range s.loads[p.Index].siteCounts {
		if n > 0 {
			out[site] = n
		}
	}
	return out
}

// LastAssignedPeriod returns the highest period index the provider holds, or -1
func (s *BlockState) LastAssignedPeriod(p *Provider) int {
	last := -1
	for idx := range s.loads[p.Index].periods {
		last = max(last, idx)
	}
	return last
}

// AssignedPeriods returns the provider's period indices in ascending order
func (s *BlockState) AssignedPeriods(p *Provider) []int {
	out := make([]int, 0, len(s.loads[p.Index].periods))
	for _, period := range s.Periods {
		if _, ok := s.loads[p.Index].periods[period.Index]; ok {
			out = append(out, period.Index)
		}
	}
	return out
}

// WeekdaySiteInWeek returns the site of the provider's weekday assignment in a week
func (s *BlockState) WeekdaySiteInWeek(p *Provider, week int) (string, bool) {
	for _, period := range s.periodsByWeek[week] {
		if period.Kind != Weekday {
			continue
		}
		if site, ok := s.loads[p.Index].periods[period.Index]; ok {
			return site, true
		}
	}
	return "", false
}

// HasAssignmentInWeek reports whether the provider holds any period of a week number
func (s *BlockState) HasAssignmentInWeek(p *Provider, week int) bool {
	for _, period := range s.periodsByWeek[week] {
		if _, ok := s.loads[p.Index].periods[period.Index]; ok {
			return true
		}
	}
	return false
}

// Place records an assignment. Callers check CanAssign first.
func (s *BlockState) Place(p *Provider, periodIdx int, site string) {
	period := s.Periods[periodIdx]
	load := s.loads[p.Index]

	load.periods[periodIdx] = site
	load.count[period.Kind]++
	load.siteCounts[site]++
	for _, day := range period.days {
		load.days[day] = true
	}

	s.filled[site][periodIdx]++
	s.periodAssignments[periodIdx] = append(s.periodAssignments[periodIdx], Assignment{
		Provider:    p,
		PeriodIndex: periodIdx,
		Site:        site,
	})
}

// Remove deletes the provider's assignment in a period and returns the site it held
func (s *BlockState) Remove(p *Provider, periodIdx int) (string, bool) {
	load := s.loads[p.Index]
	site, ok := load.periods[periodIdx]
	if !ok {
		return "", false
	}
	period := s.Periods[periodIdx]

	delete(load.periods, periodIdx)
	load.count[period.Kind]--
	load.siteCounts[site]--
	// Periods never overlap, so these days belong to no other assignment
	for _, day := range period.days {
		delete(load.days, day)
	}

	s.filled[site][periodIdx]--
	assignments := s.periodAssignments[periodIdx]
	for i, a := range assignments {
		if a.Provider == p {
			s.periodAssignments[periodIdx] = append(assignments[:i:i], assignments[i+1:]...)
			break
		}
	}

	return site, true
}
