package providers

import (
	"context"
	"net/http"
)

// Config is a single vision transcription request
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is the raw image payload; MIMEType is sniffed from it when empty
	Image    []byte
	MIMEType string
}

// ImageMIMEType returns the configured MIME type or one sniffed from the image
func (c Config) ImageMIMEType() string {
	if c.MIMEType != "" {
		return c.MIMEType
	}
	return http.DetectContentType(c.Image)
}

// Provider transcribes text from an image with a vision model
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
