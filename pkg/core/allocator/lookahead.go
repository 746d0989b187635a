package allocator

type watchedSlot struct {
	period *Period
	site   *Site

	// legal holds the affected providers who could fill the slot before placement
	legal []*Provider
}

// wouldStarveCriticalSlot reports whether placing provider at site in period
// would leave some other short zero-gap slot in weeks w-1..w+1 with no legal
// candidate at all.
//
// Only the provider and their conflict partners can lose legality through
// this placement, so a slot is watched only when one of them is legal there
// now and nobody else is. The placement is then made tentatively and undone.
func (a *Allocator) wouldStarveCriticalSlot(provider *Provider, period *Period, site *Site, useFairShareCap bool) bool {
	state := a.state

	affected := append([]*Provider{provider}, state.Partners(provider)...)
	exclude := make(map[int]bool, len(affected))
	for _, p := range affected {
		exclude[p.Index] = true
	}

	var watched []watchedSlot
	for week := period.WeekNumber - 1; week <= period.WeekNumber+1; week++ {
		for _, other := range state.PeriodsInWeek(week) {
			for _, zeroGap := range state.Sites {
				if zeroGap.Tier != ZeroGap {
					break
				}
				if other == period && zeroGap == site {
					continue
				}
				if state.Shortfall(zeroGap, other) == 0 {
					continue
				}

				var legal []*Provider
				for _, p := range affected {
					if ok, _ := CanAssign(state, p, other.Index, zeroGap.Name, useFairShareCap); ok {
						legal = append(legal, p)
					}
				}
				if len(legal) == 0 {
					continue
				}
				if state.countLegal(other, zeroGap, useFairShareCap, exclude, 1) > 0 {
					continue
				}

				watched = append(watched, watchedSlot{period: other, site: zeroGap, legal: legal})
			}
		}
	}

	if len(watched) == 0 {
		return false
	}

	state.Place(provider, period.Index, site.Name)
	defer state.Remove(provider, period.Index)

	for _, slot := range watched {
		stillCovered := false
		for _, p := range slot.legal {
			if ok, _ := CanAssign(state, p, slot.period.Index, slot.site.Name, useFairShareCap); ok {
				stillCovered = true
				break
			}
		}
		if !stillCovered {
			return true
		}
	}

	return false
}
