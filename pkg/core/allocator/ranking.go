package allocator

import "sort"

type scoredCandidate struct {
	provider *Provider
	score    float64
}

// rankCandidates scores every legal candidate for a slot, best first.
// bonus may be nil. Ties keep pool order (providers sorted by name).
func (a *Allocator) rankCandidates(period *Period, site *Site, useFairShareCap bool, bonus func(*Provider) float64) []scoredCandidate {
	var ranked []scoredCandidate
	for _, provider := range a.state.legalCandidates(period, site, useFairShareCap) {
		score := ScoreCandidate(a.state, provider, period.Index, site, a.criteria)
		if bonus != nil {
			score += bonus(provider)
		}
		ranked = append(ranked, scoredCandidate{provider: provider, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	return ranked
}

// bestCandidate returns the top-scoring legal candidate for a slot, skipping
// exclude and, when lookAhead is set, any placement that starves a zero-gap slot
func (a *Allocator) bestCandidate(period *Period, site *Site, useFairShareCap bool, lookAhead bool, exclude *Provider) *Provider {
	var best *Provider
	var bestScore float64

	for _, provider := range a.state.SitePool(site.Name) {
		if provider == exclude {
			continue
		}
		if ok, _ := CanAssign(a.state, provider, period.Index, site.Name, useFairShareCap); !ok {
			continue
		}
		if lookAhead && a.wouldStarveCriticalSlot(provider, period, site, useFairShareCap) {
			continue
		}

		score := ScoreCandidate(a.state, provider, period.Index, site, a.criteria)
		if best == nil || score > bestScore {
			best = provider
			bestScore = score
		}
	}

	return best
}

// dedicatedBonus favours providers who can work at only a few sites
func dedicatedBonus(p *Provider) float64 {
	if len(p.EligibleSites) <= DedicatedSiteLimit {
		return WeightDedicatedProvider
	}
	return 0
}
