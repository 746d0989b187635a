package allocator

// Reason names the hard constraint that blocked a placement
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonAlreadyAssigned  Reason = "already_assigned"
	ReasonCapacity         Reason = "capacity_exhausted"
	ReasonFairShare        Reason = "fair_share_cap"
	ReasonSiteIneligible   Reason = "site_ineligible"
	ReasonUnavailable      Reason = "unavailable"
	ReasonConsecutiveLimit Reason = "consecutive_limit"
	ReasonConflictPair     Reason = "conflict_pair"
)

// CanAssign decides whether provider may take site in the period at periodIdx.
//
// Checks run in a fixed order and the first failure wins:
//  1. already assigned in this period
//  2. capacity exhausted (floored remaining), then the fair-share cap when useFairShareCap is set
//  3. site not in the eligible set
//  4. unavailable on any date of the period
//  5. would create a run of calendar-adjacent days above MaxConsecutiveDays
//  6. a conflict partner already works in the same week number
//
// Availability is never bypassed by any caller.
func CanAssign(state *BlockState, provider *Provider, periodIdx int, site string, useFairShareCap bool) (bool, Reason) {
	period := state.Periods[periodIdx]
	load := state.loads[provider.Index]

	if _, assigned := load.periods[periodIdx]; assigned {
		return false, ReasonAlreadyAssigned
	}

	used := load.count[period.Kind]
	capacity := provider.Capacity[period.Kind]
	if capacity <= 0 || used >= capacity {
		return false, ReasonCapacity
	}
	if useFairShareCap && used >= provider.FairShare[period.Kind] {
		return false, ReasonFairShare
	}

	if !provider.IsEligible(site) {
		return false, ReasonSiteIneligible
	}

	if !provider.IsAvailable(period) {
		return false, ReasonUnavailable
	}

	if state.RunWith(provider, period) > state.Settings.MaxConsecutiveDays {
		return false, ReasonConsecutiveLimit
	}

	if state.conflictInWeek(provider, period.WeekNumber) {
		return false, ReasonConflictPair
	}

	return true, ReasonNone
}

// conflictInWeek reports whether any conflict partner holds a period of the week
func (s *BlockState) conflictInWeek(provider *Provider, week int) bool {
	for _, partner := range s.partners[provider.Index] {
		if s.HasAssignmentInWeek(partner, week) {
			return true
		}
	}
	return false
}

// legalCandidates returns the site pool members that pass CanAssign, in pool order
func (s *BlockState) legalCandidates(period *Period, site *Site, useFairShareCap bool) []*Provider {
	var out []*Provider
	for _, provider := range s.sitePools[site.Name] {
		if ok, _ := CanAssign(s, provider, period.Index, site.Name, useFairShareCap); ok {
			out = append(out, provider)
		}
	}
	return out
}

// countLegal counts legal candidates for a slot, skipping excluded providers.
// Stops counting once limit is reached when limit > 0.
func (s *BlockState) countLegal(period *Period, site *Site, useFairShareCap bool, exclude map[int]bool, limit int) int {
	count := 0
	for _, provider := range s.sitePools[site.Name] {
		if exclude[provider.Index] {
			continue
		}
		if ok, _ := CanAssign(s, provider, period.Index, site.Name, useFairShareCap); ok {
			count++
			if limit > 0 && count >= limit {
				return count
			}
		}
	}
	return count
}
