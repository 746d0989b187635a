package allocator

import (
	"fmt"
	"math"
	"sort"
)

// Bend labels on gap candidates
const (
	BendOverFairShare = "over_fair_share"
	bendStretchFormat = "extended_stretch_%d_days"
)

// ScheduledAssignment is one (provider, site) entry of a scheduled period
type ScheduledAssignment struct {
	Provider string `json:"provider"`
	Site     string `json:"site"`
}

// ScheduledPeriod is one period of the draft schedule
type ScheduledPeriod struct {
	PeriodIndex int                   `json:"periodIndex"`
	Kind        string                `json:"kind"`
	WeekNumber  int                   `json:"weekNumber"`
	Label       string                `json:"label"`
	Dates       []string              `json:"dates"`
	Holiday     string                `json:"holiday,omitempty"`
	Assignments []ScheduledAssignment `json:"assignments"`
}

// GapCandidate is a provider who could fill a gap if the listed soft limits bend.
// An empty Bends list means nothing but the scorer kept them out.
type GapCandidate struct {
	Provider          string   `json:"provider"`
	Bends             []string `json:"bends"`
	RemainingWeeks    float64  `json:"remainingWeeks"`
	RemainingWeekends float64  `json:"remainingWeekends"`
	WeeksAssigned     int      `json:"weeksAssigned"`
	WeekendsAssigned  int      `json:"weekendsAssigned"`
}

// Gap is an unmet (period, site) with its ranked candidates
type Gap struct {
	PeriodIndex int            `json:"periodIndex"`
	WeekNumber  int            `json:"weekNumber"`
	Kind        string         `json:"kind"`
	Label       string         `json:"label"`
	Dates       []string       `json:"dates"`
	Site        string         `json:"site"`
	Tier        string         `json:"tier"`
	Demand      int            `json:"demand"`
	Filled      int            `json:"filled"`
	Shortfall   int            `json:"shortfall"`
	Candidates  []GapCandidate `json:"candidates"`
}

// ProviderAssignment is one line of a provider's own schedule
type ProviderAssignment struct {
	PeriodIndex int    `json:"periodIndex"`
	Label       string `json:"label"`
	Site        string `json:"site"`
}

// ProviderSummary reports one provider's targets against what they received
type ProviderSummary struct {
	Name               string               `json:"name"`
	ShiftCategory      string               `json:"shiftCategory"`
	FTE                float64              `json:"fte"`
	AnnualWeeks        float64              `json:"annualWeeks"`
	AnnualWeekends     float64              `json:"annualWeekends"`
	PriorWeeks         float64              `json:"priorWeeks"`
	PriorWeekends      float64              `json:"priorWeekends"`
	RemainingWeeks     float64              `json:"remainingWeeks"`
	RemainingWeekends  float64              `json:"remainingWeekends"`
	TargetWeeks        int                  `json:"targetWeeks"`
	TargetWeekends     int                  `json:"targetWeekends"`
	FairShareWeeks     int                  `json:"fairShareWeeks"`
	FairShareWeekends  int                  `json:"fairShareWeekends"`
	WeeksAssigned      int                  `json:"weeksAssigned"`
	WeekendsAssigned   int                  `json:"weekendsAssigned"`
	WeeksGap           int                  `json:"weeksGap"`
	WeekendsGap        int                  `json:"weekendsGap"`
	SiteDistribution   map[string]int       `json:"siteDistribution"`
	EligibleSites      []string             `json:"eligibleSites"`
	MaxConsecutiveDays int                  `json:"maxConsecutiveDays"`
	Markers            []string             `json:"markers"`
	Assignments        []ProviderAssignment `json:"assignments"`
}

// SiteCoverage is demand against fill for one site
type SiteCoverage struct {
	Site               string  `json:"site"`
	Tier               string  `json:"tier"`
	WeekdayDemand      int     `json:"weekdayDemand"`
	WeekdayFilled      int     `json:"weekdayFilled"`
	WeekdayCoveragePct float64 `json:"weekdayCoveragePct"`
	WeekendDemand      int     `json:"weekendDemand"`
	WeekendFilled      int     `json:"weekendFilled"`
	WeekendCoveragePct float64 `json:"weekendCoveragePct"`
}

// PhaseStat is the state left behind by one phase
type PhaseStat struct {
	Phase        string `json:"phase"`
	Placed       int    `json:"placed"`
	Unmet        int    `json:"unmet"`
	ZeroGapUnmet int    `json:"zeroGapUnmet"`
}

// Stats are the headline numbers of a run
type Stats struct {
	Providers             int         `json:"providers"`
	Assignments           int         `json:"assignments"`
	WeeksAssigned         int         `json:"weeksAssigned"`
	WeekendsAssigned      int         `json:"weekendsAssigned"`
	TotalGaps             int         `json:"totalGaps"`
	ZeroGapGaps           int         `json:"zeroGapGaps"`
	GapsWithCandidates    int         `json:"gapsWithCandidates"`
	GapsWithoutCandidates int         `json:"gapsWithoutCandidates"`
	CoveragePct           float64     `json:"coveragePct"`
	Swaps                 int         `json:"swaps"`
	Phases                []PhaseStat `json:"phases"`
}

// buildOutcome compiles the final reports. Nothing is placed here.
func (a *Allocator) buildOutcome(seed uint64) *AllocationOutcome {
	// Initialize with empty slices (not nil) for easier consumption
	outcome := &AllocationOutcome{
		Seed:             seed,
		State:            a.state,
		Schedule:         []ScheduledPeriod{},
		Gaps:             []Gap{},
		Providers:        []ProviderSummary{},
		SiteCoverage:     []SiteCoverage{},
		Warnings:         []Warning{},
		Excluded:         map[string][]string{},
		ValidationErrors: []ValidationError{},
	}

	if a.registry != nil {
		outcome.Warnings = append(outcome.Warnings, a.registry.Warnings...)
		for reason, names := range a.registry.Excluded {
			outcome.Excluded[reason] = append([]string{}, names...)
		}
	}

	outcome.Schedule = DraftSchedule(a.state)
	outcome.Gaps = GapReport(a.state)
	outcome.Providers = ProviderSummaries(a.state)
	outcome.SiteCoverage = SiteCoverageSummary(a.state)
	outcome.Stats = a.buildStats(outcome)

	if errs := ValidateBlockState(a.state); len(errs) > 0 {
		outcome.ValidationErrors = errs
	}

	// Gaps are data; only a broken hard constraint fails the run
	outcome.Success = len(outcome.ValidationErrors) == 0

	return outcome
}

// DraftSchedule lists every period with its assignments, ordered by site then provider
func DraftSchedule(state *BlockState) []ScheduledPeriod {
	siteOrder := make(map[string]int, len(state.Sites))
	for i, site := range state.Sites {
		siteOrder[site.Name] = i
	}

	schedule := make([]ScheduledPeriod, 0, len(state.Periods))
	for _, period := range state.Periods {
		entry := ScheduledPeriod{
			PeriodIndex: period.Index,
			Kind:        period.Kind.String(),
			WeekNumber:  period.WeekNumber,
			Label:       period.Label(),
			Dates:       period.DateStrings(),
			Holiday:     period.Holiday,
			Assignments: []ScheduledAssignment{},
		}

		for _, assignment := range state.Assignments(period.Index) {
			entry.Assignments = append(entry.Assignments, ScheduledAssignment{
				Provider: assignment.Provider.Name,
				Site:     assignment.Site,
			})
		}
		sort.SliceStable(entry.Assignments, func(i, j int) bool {
			si, sj := siteOrder[entry.Assignments[i].Site], siteOrder[entry.Assignments[j].Site]
			if si != sj {
				return si < sj
			}
			return entry.Assignments[i].Provider < entry.Assignments[j].Provider
		})

		schedule = append(schedule, entry)
	}
	return schedule
}

// GapReport lists every short (period, site) in period then site order
func GapReport(state *BlockState) []Gap {
	gaps := []Gap{}
	for _, period := range state.Periods {
		for _, site := range state.Sites {
			shortfall := state.Shortfall(site, period)
			if shortfall == 0 {
				continue
			}
			gaps = append(gaps, Gap{
				PeriodIndex: period.Index,
				WeekNumber:  period.WeekNumber,
				Kind:        period.Kind.String(),
				Label:       period.Label(),
				Dates:       period.DateStrings(),
				Site:        site.Name,
				Tier:        site.Tier.String(),
				Demand:      site.DemandFor(period.Kind),
				Filled:      state.Filled(site.Name, period.Index),
				Shortfall:   shortfall,
				Candidates:  GapCandidates(state, period, site),
			})
		}
	}
	return gaps
}

// GapCandidates lists the site pool members who could fill the slot by bending
// soft limits only. Anyone failing an absolute constraint (already working the
// period, unavailable, ineligible, conflict partner working the week, no
// capacity left, or over the consecutive-day ceiling) is left out entirely.
// Sorted by number of bends, then name.
func GapCandidates(state *BlockState, period *Period, site *Site) []GapCandidate {
	candidates := []GapCandidate{}

	for _, provider := range state.SitePool(site.Name) {
		if _, assigned := state.AssignedSite(provider, period.Index); assigned {
			continue
		}
		if !provider.IsAvailable(period) || !provider.IsEligible(site.Name) {
			continue
		}
		if state.conflictInWeek(provider, period.WeekNumber) {
			continue
		}

		used := state.AssignedCount(provider, period.Kind)
		capacity := provider.Capacity[period.Kind]
		if capacity <= 0 || used >= capacity {
			continue
		}

		run := state.RunWith(provider, period)
		if run > state.Settings.MaxConsecutiveDays {
			continue
		}

		bends := []string{}
		if used >= provider.FairShare[period.Kind] {
			bends = append(bends, BendOverFairShare)
		}
		if run > state.Settings.StretchSoftLimit {
			bends = append(bends, fmt.Sprintf(bendStretchFormat, run))
		}

		candidates = append(candidates, GapCandidate{
			Provider:          provider.Name,
			Bends:             bends,
			RemainingWeeks:    provider.Remaining[Weekday],
			RemainingWeekends: provider.Remaining[Weekend],
			WeeksAssigned:     state.AssignedCount(provider, Weekday),
			WeekendsAssigned:  state.AssignedCount(provider, Weekend),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].Bends) != len(candidates[j].Bends) {
			return len(candidates[i].Bends) < len(candidates[j].Bends)
		}
		return candidates[i].Provider < candidates[j].Provider
	})
	return candidates
}

// ProviderSummaries reports every scheduled provider in name order
func ProviderSummaries(state *BlockState) []ProviderSummary {
	summaries := make([]ProviderSummary, 0, len(state.Providers))

	for _, provider := range state.Providers {
		weeks := state.AssignedCount(provider, Weekday)
		weekends := state.AssignedCount(provider, Weekend)

		summary := ProviderSummary{
			Name:               provider.Name,
			ShiftCategory:      provider.ShiftCategory,
			FTE:                provider.FTE,
			AnnualWeeks:        provider.Annual[Weekday],
			AnnualWeekends:     provider.Annual[Weekend],
			PriorWeeks:         provider.Prior[Weekday],
			PriorWeekends:      provider.Prior[Weekend],
			RemainingWeeks:     provider.Remaining[Weekday],
			RemainingWeekends:  provider.Remaining[Weekend],
			TargetWeeks:        provider.Capacity[Weekday],
			TargetWeekends:     provider.Capacity[Weekend],
			FairShareWeeks:     provider.FairShare[Weekday],
			FairShareWeekends:  provider.FairShare[Weekend],
			WeeksAssigned:      weeks,
			WeekendsAssigned:   weekends,
			WeeksGap:           provider.Capacity[Weekday] - weeks,
			WeekendsGap:        provider.Capacity[Weekend] - weekends,
			SiteDistribution:   state.SiteCounts(provider),
			EligibleSites:      append([]string{}, provider.EligibleSites...),
			MaxConsecutiveDays: state.CurrentLongestRun(provider),
			Markers:            provider.Markers.Labels(),
			Assignments:        []ProviderAssignment{},
		}
		if summary.Markers == nil {
			summary.Markers = []string{}
		}

		for _, idx := range state.AssignedPeriods(provider) {
			site, _ := state.AssignedSite(provider, idx)
			summary.Assignments = append(summary.Assignments, ProviderAssignment{
				PeriodIndex: idx,
				Label:       state.Periods[idx].Label(),
				Site:        site,
			})
		}

		summaries = append(summaries, summary)
	}

	return summaries
}

// SiteCoverageSummary reports demand against fill per site, in tier order.
// A kind with no demand reports 100%.
func SiteCoverageSummary(state *BlockState) []SiteCoverage {
	coverage := make([]SiteCoverage, 0, len(state.Sites))

	for _, site := range state.Sites {
		var demand, filled [2]int
		for _, period := range state.Periods {
			need := site.DemandFor(period.Kind)
			demand[period.Kind] += need
			filled[period.Kind] += min(state.Filled(site.Name, period.Index), need)
		}

		coverage = append(coverage, SiteCoverage{
			Site:               site.Name,
			Tier:               site.Tier.String(),
			WeekdayDemand:      demand[Weekday],
			WeekdayFilled:      filled[Weekday],
			WeekdayCoveragePct: percent(filled[Weekday], demand[Weekday]),
			WeekendDemand:      demand[Weekend],
			WeekendFilled:      filled[Weekend],
			WeekendCoveragePct: percent(filled[Weekend], demand[Weekend]),
		})
	}

	return coverage
}

func (a *Allocator) buildStats(outcome *AllocationOutcome) Stats {
	stats := Stats{
		Providers: len(a.state.Providers),
		Swaps:     a.swaps,
		Phases:    append([]PhaseStat{}, a.phases...),
	}

	for _, provider := range a.state.Providers {
		stats.WeeksAssigned += a.state.AssignedCount(provider, Weekday)
		stats.WeekendsAssigned += a.state.AssignedCount(provider, Weekend)
	}
	stats.Assignments = stats.WeeksAssigned + stats.WeekendsAssigned

	for _, gap := range outcome.Gaps {
		stats.TotalGaps += gap.Shortfall
		if gap.Tier == ZeroGap.String() {
			stats.ZeroGapGaps += gap.Shortfall
		}
		if len(gap.Candidates) > 0 {
			stats.GapsWithCandidates++
		} else {
			stats.GapsWithoutCandidates++
		}
	}

	demand, filled := 0, 0
	for _, site := range outcome.SiteCoverage {
		demand += site.WeekdayDemand + site.WeekendDemand
		filled += site.WeekdayFilled + site.WeekendFilled
	}
	stats.CoveragePct = percent(filled, demand)

	return stats
}

// percent rounds to one decimal place; zero demand counts as fully covered
func percent(filled, demand int) float64 {
	if demand == 0 {
		return 100
	}
	return math.Round(float64(filled)*1000/float64(demand)) / 10
}
