package allocator

import "sort"

type criticalSlot struct {
	period     *Period
	site       *Site
	candidates int
}

// reserveCriticalSites fills zero-gap slots before anything else can consume
// their few candidates. Slots with the fewest legal candidates go first.
// Returns the number of placements made.
func (a *Allocator) reserveCriticalSites() int {
	state := a.state

	var slots []criticalSlot
	for _, period := range state.Periods {
		for _, site := range state.Sites {
			if site.Tier != ZeroGap || state.Shortfall(site, period) == 0 {
				continue
			}
			slots = append(slots, criticalSlot{
				period:     period,
				site:       site,
				candidates: state.countLegal(period, site, false, nil, 0),
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].candidates < slots[j].candidates
	})

	placed := 0
	for _, slot := range slots {
		need := state.Shortfall(slot.site, slot.period)
		if need == 0 {
			continue
		}

		// Fair-share caps are ignored here: leaving a zero-gap slot empty is
		// worse than pushing a provider past their share.
		var fallback []*Provider
		for _, candidate := range a.rankCandidates(slot.period, slot.site, false, dedicatedBonus) {
			if need == 0 {
				break
			}

			// An earlier placement in this slot may have blocked a conflict partner
			if ok, _ := CanAssign(state, candidate.provider, slot.period.Index, slot.site.Name, false); !ok {
				continue
			}
			if a.wouldStarveCriticalSlot(candidate.provider, slot.period, slot.site, false) {
				fallback = append(fallback, candidate.provider)
				continue
			}

			state.Place(candidate.provider, slot.period.Index, slot.site.Name)
			need--
			placed++
		}

		// This slot is itself zero-gap, so starving a neighbouring one is no
		// worse than leaving it empty.
		for _, provider := range fallback {
			if need == 0 {
				break
			}
			if ok, _ := CanAssign(state, provider, slot.period.Index, slot.site.Name, false); !ok {
				continue
			}
			state.Place(provider, slot.period.Index, slot.site.Name)
			need--
			placed++
		}
	}

	return placed
}
