package resolve

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a typed search has no text
	ErrEmptyQuery = errors.New("empty search query")
	// ErrEmptyResult is returned when a typed search matched nothing
	ErrEmptyResult = errors.New("no books found")
	// ErrNoMatch is returned when every image candidate failed, or none survived filtering
	ErrNoMatch = errors.New("no candidate query matched any books")
	// ErrLookupFailed is returned when a typed search could not reach the lookup service
	ErrLookupFailed = errors.New("lookup service request failed")
)

// OCRError reports that text extraction failed before any candidate existed
type OCRError struct {
	Engine string
	Err    error
}

func (e *OCRError) Error() string {
	if e.Engine == "" {
		return fmt.Sprintf("text extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("text extraction failed (%s): %v", e.Engine, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

// UserMessage maps a resolution error onto the message shown to the user.
// Raw transport errors never reach the render layer.
func UserMessage(err error) string {
	var ocrErr *OCRError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ocrErr):
		return "OCR or search failed. Try again with a clearer image."
	case errors.Is(err, ErrNoMatch):
		return "No matching books found. Try a clearer image or title text."
	case errors.Is(err, ErrEmptyResult):
		return "No books found."
	case errors.Is(err, ErrEmptyQuery):
		return "Enter a title or author to search."
	case errors.Is(err, ErrLookupFailed):
		return "Failed to fetch books."
	case errors.Is(err, context.Canceled):
		return "Search cancelled."
	default:
		return "Something went wrong. Please try again."
	}
}
