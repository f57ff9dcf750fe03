package models

import (
	"fmt"
	"strings"
)

// MaxResults is the largest number of records a ResultSet will hold
const MaxResults = 30

// BookRecord represents a single book returned by the lookup service.
// Authors, FirstPublishYear and CoverID are optional in the service response.
type BookRecord struct {
	Key              string   `json:"key" yaml:"key"`
	Title            string   `json:"title" yaml:"title"`
	Authors          []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	FirstPublishYear *int     `json:"first_publish_year,omitempty" yaml:"first_publish_year,omitempty"`
	CoverID          *int     `json:"cover_id,omitempty" yaml:"cover_id,omitempty"`
}

// Year returns the first publish year, or 0 when the service did not report one
func (b BookRecord) Year() int {
	if b.FirstPublishYear == nil {
		return 0
	}
	return *b.FirstPublishYear
}

// AuthorLine returns the authors joined for display
func (b BookRecord) AuthorLine() string {
	if len(b.Authors) == 0 {
		return "Unknown Author"
	}
	return strings.Join(b.Authors, ", ")
}

// YearLine returns the publish year for display, or "" when unknown
func (b BookRecord) YearLine() string {
	if b.FirstPublishYear == nil || *b.FirstPublishYear == 0 {
		return ""
	}
	return fmt.Sprintf("%d", *b.FirstPublishYear)
}

// ResultSet is an ordered, capped set of records produced by one resolution cycle.
// It is never mutated after creation.
type ResultSet struct {
	records []BookRecord
}

// NewResultSet copies at most MaxResults records into a new ResultSet
func NewResultSet(records []BookRecord) ResultSet {
	n := len(records)
	if n > MaxResults {
		n = MaxResults
	}
	out := make([]BookRecord, n)
	copy(out, records[:n])
	return ResultSet{records: out}
}

// Records returns a copy of the records in order
func (r ResultSet) Records() []BookRecord {
	out := make([]BookRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records in the set
func (r ResultSet) Len() int {
	return len(r.records)
}

// Empty reports whether the set holds no records
func (r ResultSet) Empty() bool {
	return len(r.records) == 0
}

// SortOrder selects how a ResultSet is ordered for display
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortNone   SortOrder = "none"
)

// ParseSortOrder validates a user supplied sort order. An empty string maps to def.
func ParseSortOrder(s string, def SortOrder) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortNone:
		return SortNone, nil
	default:
		return "", fmt.Errorf("invalid sort order %q (must be newest, oldest or none)", s)
	}
}

// CategoryAll disables the subject filter
const CategoryAll = "all"

// Categories lists the subject filters offered by the search form
var Categories = []string{CategoryAll, "fiction", "fantasy", "science", "romance", "history"}

// NormalizeCategory lowercases a category and maps "" to CategoryAll
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return CategoryAll
	}
	return category
}
