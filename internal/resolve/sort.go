package resolve

import (
	"sort"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

// SortRecords caps records at models.MaxResults and then orders them by
// first publish year. Missing years count as 0, so they land last for
// newest-first and first for oldest-first. Ties keep input order.
// SortNone only applies the cap.
func SortRecords(records []models.BookRecord, order models.SortOrder) []models.BookRecord {
	n := len(records)
	if n > models.MaxResults {
		n = models.MaxResults
	}
	out := make([]models.BookRecord, n)
	copy(out, records[:n])

	switch order {
	case models.SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Year() > out[j].Year() })
	case models.SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Year() < out[j].Year() })
	}
	return out
}

// SortResultSet returns a new ResultSet ordered for display
func SortResultSet(rs models.ResultSet, order models.SortOrder) models.ResultSet {
	if order == models.SortNone || order == "" {
		return rs
	}
	return models.NewResultSet(SortRecords(rs.Records(), order))
}
