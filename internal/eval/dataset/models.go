package dataset

import "strings"

// Record is one labelled example for pipeline evaluation: a cover photo or
// its OCR text, and the book it should resolve to.
type Record struct {
	ID     string `json:"id" parquet:"id"`
	Title  string `json:"title" parquet:"title"`
	Author string `json:"author,omitempty" parquet:"author,optional"`

	// OCRText is used directly when present, skipping OCR
	OCRText string `json:"ocr_text,omitempty" parquet:"ocr_text,optional"`
	// ImagePath is a local cover image, resolved relative to the dataset file
	ImagePath string `json:"image_path,omitempty" parquet:"image_path,optional"`
	// CoverID is an Open Library cover identifier used by download-covers
	CoverID int `json:"cover_id,omitempty" parquet:"cover_id,optional"`
}

// HasOCRText reports whether the record carries pre-extracted text
func (r *Record) HasOCRText() bool {
	return strings.TrimSpace(r.OCRText) != ""
}

// HasImage reports whether the record points at a cover image
func (r *Record) HasImage() bool {
	return r.ImagePath != ""
}

// Usable reports whether the record can be evaluated at all
func (r *Record) Usable() bool {
	return r.Title != "" && (r.HasOCRText() || r.HasImage())
}
