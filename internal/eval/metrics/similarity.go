package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

// HitThreshold is the title similarity at which a returned book counts as the expected one
const HitThreshold = 0.8

var punctuation = regexp.MustCompile(`[^\w\s]`)

// FieldMatch is the comparison of one expected value against one returned value
type FieldMatch struct {
	Expected string  `json:"expected" yaml:"expected"`
	Actual   string  `json:"actual" yaml:"actual"`
	Score    float64 `json:"score" yaml:"score"`
	Distance int     `json:"distance" yaml:"distance"`
	Method   string  `json:"method" yaml:"method"`
	Notes    string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// CompareField scores actual against expected using normalised Levenshtein similarity
func CompareField(expected, actual string) FieldMatch {
	match := FieldMatch{
		Expected: expected,
		Actual:   actual,
	}

	expNorm := normalizeText(expected)
	actNorm := normalizeText(actual)

	switch {
	case expNorm == "" && actNorm == "":
		match.Method = "both_missing"
		return match
	case expNorm == "":
		match.Method = "expected_missing"
		match.Distance = len(actNorm)
		return match
	case actNorm == "":
		match.Method = "actual_missing"
		match.Distance = len(expNorm)
		return match
	}

	if expNorm == actNorm {
		match.Score = 1.0
		match.Method = "exact"
		return match
	}

	distance := levenshteinDistance(expNorm, actNorm)
	similarity := 1.0 - float64(distance)/float64(max(len(expNorm), len(actNorm)))
	match.Distance = distance
	match.Score = similarity

	switch {
	case strings.Contains(actNorm, expNorm) || strings.Contains(expNorm, actNorm):
		// "Dune" vs "Dune Messiah" scores low on distance but is usually the same work
		match.Method = "substring"
		match.Score = max(similarity, HitThreshold)
	case similarity > 0.9:
		match.Method = "fuzzy_high"
	case similarity > 0.7:
		match.Method = "fuzzy_medium"
	default:
		match.Method = "no_match"
	}
	match.Notes = fmt.Sprintf("%.1f%% similar, Levenshtein: %d", similarity*100, distance)

	return match
}

// ScoreResults compares the first returned title with expected and finds the
// 1-based position of the first record reaching HitThreshold (0 when none does).
// It returns a nil match for an empty record list.
func ScoreResults(expected string, records []models.BookRecord) (*FieldMatch, int) {
	if len(records) == 0 {
		return nil, 0
	}

	first := CompareField(expected, records[0].Title)
	if first.Score >= HitThreshold {
		return &first, 1
	}
	for i, rec := range records[1:] {
		if CompareField(expected, rec.Title).Score >= HitThreshold {
			return &first, i + 2
		}
	}
	return &first, 0
}

// normalizeText lowercases, strips punctuation and collapses whitespace
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = punctuation.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
