package allocator

// optimizeSwaps relocates providers already placed in a period into that
// period's remaining gaps. Runs up to MaxSwapRounds and stops early after a
// round with no moves. A move never raises total unmet demand.
// Returns the number of moves kept.
func (a *Allocator) optimizeSwaps() int {
	total := 0
	for round := 0; round < a.state.Settings.MaxSwapRounds; round++ {
		swaps := 0
		for _, period := range a.state.Periods {
			for _, target := range a.state.Sites {
				if target.Tier == DemandAbsorbing || a.state.Shortfall(target, period) == 0 {
					continue
				}
				if a.relocateInto(period, target) {
					swaps++
				}
			}
		}

		total += swaps
		if swaps == 0 {
			break
		}
	}
	return total
}

// relocateInto moves at most one provider from another site of the same
// period into target. The move is kept only if the donor site
//   - stays at or above its own demand, or
//   - can be backfilled by a legal replacement, or
//   - tolerates gaps better than target.
func (a *Allocator) relocateInto(period *Period, target *Site) bool {
	state := a.state

	assignments := make([]Assignment, len(state.Assignments(period.Index)))
	copy(assignments, state.Assignments(period.Index))

	for _, assignment := range assignments {
		mover := assignment.Provider
		if assignment.Site == target.Name || !mover.IsEligible(target.Name) {
			continue
		}
		donor := state.Site(assignment.Site)

		surplus := state.Filled(donor.Name, period.Index) > donor.DemandFor(period.Kind)
		tolerant := donor.Tier > target.Tier

		state.Remove(mover, period.Index)
		if ok, _ := CanAssign(state, mover, period.Index, target.Name, false); !ok {
			state.Place(mover, period.Index, donor.Name)
			continue
		}
		state.Place(mover, period.Index, target.Name)

		if surplus {
			return true
		}

		replacement := a.bestCandidate(period, donor, false, false, mover)
		if replacement != nil {
			state.Place(replacement, period.Index, donor.Name)
			return true
		}
		if tolerant {
			return true
		}

		state.Remove(mover, period.Index)
		state.Place(mover, period.Index, donor.Name)
	}

	return false
}
