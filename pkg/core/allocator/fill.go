package allocator

import "sort"

// fillWithinFairShare runs rounds of one placement per short (period, site),
// honouring the fair-share cap. Hard weeks (few available providers) go first.
func (a *Allocator) fillWithinFairShare() int {
	difficulty := a.weekDifficulty()

	placed := 0
	for round := 0; round < a.state.MaxDemand(); round++ {
		weeks := a.shuffledWeeks()
		sort.SliceStable(weeks, func(i, j int) bool {
			return difficulty[weeks[i]] > difficulty[weeks[j]]
		})
		placed += a.fillWeeks(weeks, true)
	}
	return placed
}

// fillBehindPace repeats the rounds with the fair-share cap lifted, taking
// weeks with the most weighted shortfall first
func (a *Allocator) fillBehindPace() int {
	placed := 0
	for round := 0; round < a.state.MaxDemand(); round++ {
		weeks := a.shuffledWeeks()

		shortfall := make(map[int]int, len(weeks))
		for _, week := range weeks {
			shortfall[week] = a.weekShortfall(week)
		}
		sort.SliceStable(weeks, func(i, j int) bool {
			return shortfall[weeks[i]] > shortfall[weeks[j]]
		})

		placed += a.fillWeeks(weeks, false)
	}
	return placed
}

// fillWeeks places at most one provider per short (period, site) in the given weeks.
// Sites are visited in tier order, so zero-gap sites pick first.
func (a *Allocator) fillWeeks(weeks []int, useFairShareCap bool) int {
	placed := 0
	for _, week := range weeks {
		for _, period := range a.state.PeriodsInWeek(week) {
			for _, site := range a.state.Sites {
				if a.state.Shortfall(site, period) == 0 {
					continue
				}
				if a.fillOneSlot(period, site, useFairShareCap) {
					placed++
				}
			}
		}
	}
	return placed
}

// fillOneSlot places the best legal candidate, if any.
// Filling a zero-gap site never needs protecting from itself, so look-ahead
// only guards placements at the other tiers.
func (a *Allocator) fillOneSlot(period *Period, site *Site, useFairShareCap bool) bool {
	best := a.bestCandidate(period, site, useFairShareCap, site.Tier > ZeroGap, nil)
	if best == nil {
		return false
	}
	a.state.Place(best, period.Index, site.Name)
	return true
}

// shuffledWeeks returns the week numbers in a seeded random order
func (a *Allocator) shuffledWeeks() []int {
	weeks := make([]int, len(a.state.WeekNumbers()))
	copy(weeks, a.state.WeekNumbers())
	a.state.Rand.Shuffle(len(weeks), func(i, j int) {
		weeks[i], weeks[j] = weeks[j], weeks[i]
	})
	return weeks
}

// weekDifficulty scores each week by how few providers are free for its
// weekday period. Higher is harder. With WeightDifficultyByCapacity the
// providers' remaining weekday capacity is summed instead of counted.
func (a *Allocator) weekDifficulty() map[int]float64 {
	state := a.state
	difficulty := make(map[int]float64, len(state.WeekNumbers()))

	for _, week := range state.WeekNumbers() {
		supply := 0
		for _, period := range state.PeriodsInWeek(week) {
			if period.Kind != Weekday {
				continue
			}
			for _, provider := range state.Providers {
				if !provider.IsAvailable(period) {
					continue
				}
				if state.Settings.WeightDifficultyByCapacity {
					supply += max(provider.Capacity[Weekday]-state.AssignedCount(provider, Weekday), 0)
				} else {
					supply++
				}
			}
		}
		difficulty[week] = -float64(supply)
	}

	return difficulty
}

// weekShortfall sums the week's unmet demand, weighting zero-gap sites
func (a *Allocator) weekShortfall(week int) int {
	total := 0
	for _, period := range a.state.PeriodsInWeek(week) {
		for _, site := range a.state.Sites {
			weight := 1
			if site.Tier == ZeroGap {
				weight = ZeroGapShortfallWeight
			}
			total += a.state.Shortfall(site, period) * weight
		}
	}
	return total
}
