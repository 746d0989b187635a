package allocator

import (
	"fmt"
	"sort"
)

// Invariant names used in ValidationError
const (
	InvariantAvailability     = "availability"
	InvariantConsecutiveDays  = "consecutive_days"
	InvariantConflictPair     = "conflict_pair"
	InvariantCapacity         = "capacity"
	InvariantSiteEligibility  = "site_eligibility"
	InvariantDoubleAssignment = "double_assignment"
)

// ValidationError is a hard constraint found broken on a final state.
// PeriodIndex is -1 when the breach is not tied to one period.
type ValidationError struct {
	Invariant   string `json:"invariant"`
	Provider    string `json:"provider"`
	PeriodIndex int    `json:"periodIndex"`
	Site        string `json:"site,omitempty"`
	Description string `json:"description"`
}

// ValidateBlockState re-checks every hard constraint against the final assignments.
// The phases never place an illegal assignment, so any result here is a bug.
func ValidateBlockState(state *BlockState) []ValidationError {
	var errors []ValidationError

	errors = append(errors, validateProviderInvariants(state)...)
	errors = append(errors, validateConflictPairs(state)...)

	return errors
}

func validateProviderInvariants(state *BlockState) []ValidationError {
	var errors []ValidationError

	seen := make(map[[2]int]bool)
	for _, period := range state.Periods {
		for _, assignment := range state.Assignments(period.Index) {
			key := [2]int{assignment.Provider.Index, period.Index}
			if seen[key] {
				errors = append(errors, ValidationError{
					Invariant:   InvariantDoubleAssignment,
					Provider:    assignment.Provider.Name,
					PeriodIndex: period.Index,
					Site:        assignment.Site,
					Description: fmt.Sprintf("%s holds more than one site in %s", assignment.Provider.Name, period.Label()),
				})
			}
			seen[key] = true
		}
	}

	for _, provider := range state.Providers {
		for _, idx := range state.AssignedPeriods(provider) {
			period := state.Periods[idx]
			site, _ := state.AssignedSite(provider, idx)

			if !provider.IsAvailable(period) {
				errors = append(errors, ValidationError{
					Invariant:   InvariantAvailability,
					Provider:    provider.Name,
					PeriodIndex: idx,
					Site:        site,
					Description: fmt.Sprintf("%s is unavailable during %s", provider.Name, period.Label()),
				})
			}

			if !provider.IsEligible(site) {
				errors = append(errors, ValidationError{
					Invariant:   InvariantSiteEligibility,
					Provider:    provider.Name,
					PeriodIndex: idx,
					Site:        site,
					Description: fmt.Sprintf("%s is not eligible for %s", provider.Name, site),
				})
			}
		}

		if run := state.CurrentLongestRun(provider); run > state.Settings.MaxConsecutiveDays {
			errors = append(errors, ValidationError{
				Invariant:   InvariantConsecutiveDays,
				Provider:    provider.Name,
				PeriodIndex: -1,
				Description: fmt.Sprintf("%s works %d consecutive days, max is %d", provider.Name, run, state.Settings.MaxConsecutiveDays),
			})
		}

		for _, kind := range []PeriodKind{Weekday, Weekend} {
			assigned := state.AssignedCount(provider, kind)
			if assigned > provider.Capacity[kind] {
				errors = append(errors, ValidationError{
					Invariant:   InvariantCapacity,
					Provider:    provider.Name,
					PeriodIndex: -1,
					Description: fmt.Sprintf("%s has %d %s periods but capacity is %d", provider.Name, assigned, kind, provider.Capacity[kind]),
				})
			}
		}
	}

	return errors
}

func validateConflictPairs(state *BlockState) []ValidationError {
	var errors []ValidationError

	for _, pair := range state.ConflictPairs {
		var shared []int
		for _, week := range state.WeekNumbers() {
			if state.HasAssignmentInWeek(pair.A, week) && state.HasAssignmentInWeek(pair.B, week) {
				shared = append(shared, week)
			}
		}
		sort.Ints(shared)

		for _, week := range shared {
			errors = append(errors, ValidationError{
				Invariant:   InvariantConflictPair,
				Provider:    pair.A.Name,
				PeriodIndex: -1,
				Description: fmt.Sprintf("%s and %s both work week %d", pair.A.Name, pair.B.Name, week),
			})
		}
	}

	return errors
}
