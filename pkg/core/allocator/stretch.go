package allocator

import "slices"

// longestRun returns the longest run of consecutive day numbers in days
func longestRun(days map[int]bool) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]int, 0, len(days))
	for day := range days {
		sorted = append(sorted, day)
	}
	slices.Sort(sorted)

	best, current := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			current++
			best = max(best, current)
		} else {
			current = 1
		}
	}
	return best
}

// CurrentLongestRun returns the provider's longest run of calendar-adjacent assigned days
func (s *BlockState) CurrentLongestRun(p *Provider) int {
	return longestRun(s.loads[p.Index].days)
}

// RunWith returns the longest run the provider would have if also given period.
// Weekday and weekend dates are merged, so a Mon-Sun pair counts as seven days.
func (s *BlockState) RunWith(p *Provider, period *Period) int {
	existing := s.loads[p.Index].days
	merged := make(map[int]bool, len(existing)+len(period.days))
	for day := range existing {
		merged[day] = true
	}
	for _, day := range period.days {
		merged[day] = true
	}
	return longestRun(merged)
}
