package resolve

import "sort"

// Candidate is a cleaned line with its position in the ranking (0 is best)
type Candidate struct {
	Text string
	Rank int
}

// RankCandidates orders lines longest first. Titles tend to be the longest
// text on a cover; equal lengths keep their original order.
func RankCandidates(lines []string) []Candidate {
	ordered := make([]string, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})

	candidates := make([]Candidate, len(ordered))
	for i, line := range ordered {
		candidates[i] = Candidate{Text: line, Rank: i}
	}
	return candidates
}
