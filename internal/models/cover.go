package models

import (
	"fmt"
	"strings"
)

const (
	DefaultCoversURL      = "https://covers.openlibrary.org"
	DefaultPlaceholderURL = "https://via.placeholder.com/150x200?text=No+Cover"
)

// CoverSize is the size suffix understood by the covers service
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// CoverImageURL builds the covers service URL for a cover identifier
func CoverImageURL(coversBase string, coverID int, size CoverSize) string {
	if coversBase == "" {
		coversBase = DefaultCoversURL
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", strings.TrimSuffix(coversBase, "/"), coverID, size)
}

// CoverURL derives the display URL for a record's cover.
// Records without a cover identifier get the placeholder.
func CoverURL(rec BookRecord, coversBase, placeholder string) string {
	if rec.CoverID == nil || *rec.CoverID == 0 {
		if placeholder == "" {
			return DefaultPlaceholderURL
		}
		return placeholder
	}
	return CoverImageURL(coversBase, *rec.CoverID, CoverMedium)
}

// BookView is the shape handed to the render layer
type BookView struct {
	Key              string   `json:"key" yaml:"key"`
	Title            string   `json:"title" yaml:"title"`
	Authors          []string `json:"authors" yaml:"authors"`
	AuthorLine       string   `json:"author_line" yaml:"author_line"`
	FirstPublishYear int      `json:"first_publish_year,omitempty" yaml:"first_publish_year,omitempty"`
	CoverURL         string   `json:"cover_url" yaml:"cover_url"`
}

// NewBookViews converts a ResultSet into display records
func NewBookViews(rs ResultSet, coversBase, placeholder string) []BookView {
	records := rs.Records()
	views := make([]BookView, 0, len(records))
	for _, rec := range records {
		authors := rec.Authors
		if authors == nil {
			authors = []string{}
		}
		views = append(views, BookView{
			Key:              rec.Key,
			Title:            rec.Title,
			Authors:          authors,
			AuthorLine:       rec.AuthorLine(),
			FirstPublishYear: rec.Year(),
			CoverURL:         CoverURL(rec, coversBase, placeholder),
		})
	}
	return views
}
