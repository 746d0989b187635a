package allocator

// Candidate is a legal (provider, period, site) triple under consideration
type Candidate struct {
	Provider *Provider
	Period   *Period
	Site     *Site
}

// Criterion is one additive term of the candidate score.
// Criteria only rank legal candidates; legality is decided by CanAssign alone.
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// CalculateAffinity returns this criterion's raw contribution for the candidate.
	// The value is multiplied by AffinityWeight and summed with the other criteria.
	// Return 0 if the criterion does not apply to this candidate.
	CalculateAffinity(state *BlockState, candidate Candidate) float64

	// AffinityWeight scales CalculateAffinity
	AffinityWeight() float64
}

// ScoreCandidate sums the weighted affinities of every criterion.
// Higher is better; the highest-scoring legal candidate is placed.
func ScoreCandidate(state *BlockState, provider *Provider, periodIdx int, site *Site, criteria []Criterion) float64 {
	candidate := Candidate{
		Provider: provider,
		Period:   state.Periods[periodIdx],
		Site:     site,
	}

	score := 0.0
	for _, criterion := range criteria {
		score += criterion.CalculateAffinity(state, candidate) * criterion.AffinityWeight()
	}
	return score
}
