package resolve

import (
	"strings"
	"unicode"
)

// minLineLength is the shortest cleaned line kept as a candidate
const minLineLength = 3

// CleanLines turns raw OCR output into candidate lines. Every character that
// is not an ASCII letter, digit or whitespace is removed, the line is trimmed,
// and lines shorter than three characters are dropped. Line order is kept.
func CleanLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		cleaned := strings.TrimSpace(stripNonAlnum(line))
		if len(cleaned) < minLineLength {
			continue
		}
		lines = append(lines, cleaned)
	}
	return lines
}

// stripNonAlnum keeps ASCII letters, digits and spaces. Any Unicode
// whitespace, such as a tab or a no-break space, becomes a plain space so
// words stay apart.
func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return b.String()
}
