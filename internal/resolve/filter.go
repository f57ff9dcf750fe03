package resolve

import (
	"strconv"
	"strings"
)

// minQueryLength is the shortest filtered query worth sending to the lookup service
const minQueryLength = 3

// stopwords are cover boilerplate that pollutes search relevance
var stopwords = map[string]struct{}{
	"edition":       {},
	"comprehensive": {},
	"guide":         {},
	"volume":        {},
	"textbook":      {},
}

// FilterQuery strips noise tokens from a candidate line: tokens of two
// characters or fewer, stopwords (case-insensitive) and purely numeric
// tokens. It reports false when what remains is too short to attempt.
func FilterQuery(line string) (string, bool) {
	var kept []string
	for _, token := range strings.Fields(line) {
		if keepToken(token) {
			kept = append(kept, token)
		}
	}
	query := strings.Join(kept, " ")
	if len(query) < minQueryLength {
		return "", false
	}
	return query, true
}

func keepToken(token string) bool {
	if len(token) <= 2 {
		return false
	}
	if _, ok := stopwords[strings.ToLower(token)]; ok {
		return false
	}
	return !isNumeric(token)
}

// isNumeric reports whether the whole token parses as a number. Words that
// ParseFloat also accepts, like "Infinity" or "NaN", are not numbers here.
func isNumeric(token string) bool {
	if !strings.ContainsAny(token, "0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}
