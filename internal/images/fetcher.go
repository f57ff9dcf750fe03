package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

// DefaultMaxBytes caps a fetched image at 10MB
const DefaultMaxBytes = 10 << 20

// minCoverBytes filters the tiny blank images the covers service sometimes returns
const minCoverBytes = 1000

var (
	// ErrTooLarge is returned when a remote image exceeds the byte limit
	ErrTooLarge = errors.New("image too large")
	// ErrNoCover is returned when the covers service has no real image for an ID
	ErrNoCover = errors.New("no cover image available")
)

// Fetcher retrieves remote images
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: DefaultMaxBytes,
	}
}

// FetchImage downloads url and checks that the body is a decodable image
func (f *Fetcher) FetchImage(ctx context.Context, url string) ([]byte, Info, error) {
	data, err := f.get(ctx, url)
	if err != nil {
		return nil, Info{}, err
	}
	info, err := Inspect(data)
	if err != nil {
		return nil, Info{}, err
	}
	return data, info, nil
}

// DownloadCover saves the cover for coverID to outputPath. Missing covers
// yield ErrNoCover rather than a blank placeholder file.
func (f *Fetcher) DownloadCover(ctx context.Context, coversBase string, coverID int, size models.CoverSize, outputPath string) error {
	url := models.CoverImageURL(coversBase, coverID, size) + "?default=false"

	data, err := f.get(ctx, url)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return fmt.Errorf("%w: cover %d", ErrNoCover, coverID)
		}
		return fmt.Errorf("failed to fetch cover: %w", err)
	}

	if len(data) < minCoverBytes {
		return fmt.Errorf("%w: cover %d is %d bytes", ErrNoCover, coverID, len(data))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create cover directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cover file: %w", err)
	}

	slog.Debug("Downloaded cover", "cover_id", coverID, "path", outputPath, "bytes", len(data))
	return nil
}

// StatusError is a non-200 response from an image host
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("image URL returned status %d", e.Code)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
