package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/providers"
)

// ProviderEngine runs OCR through a vision model provider
type ProviderEngine struct {
	name     string
	provider providers.Provider
	model    string
}

// NewProviderEngine wraps provider as an Engine named name. An empty model
// lets the provider pick its default.
func NewProviderEngine(name string, provider providers.Provider, model string) *ProviderEngine {
	return &ProviderEngine{
		name:     name,
		provider: provider,
		model:    model,
	}
}

func (p *ProviderEngine) Name() string {
	return p.name
}

// Recognize asks the model for a verbatim transcription of the cover
func (p *ProviderEngine) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	text, err := p.provider.ExtractText(ctx, providers.Config{
		Model:       p.model,
		Temperature: 0.0,
		Prompt:      buildOCRPrompt(lang),
		Image:       image,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// languageNames maps tesseract language codes onto the name given to vision models
var languageNames = map[string]string{
	"eng": "English",
	"fra": "French",
	"deu": "German",
	"spa": "Spanish",
	"ita": "Italian",
	"por": "Portuguese",
}

func buildOCRPrompt(lang string) string {
	hint := ""
	if name, ok := languageNames[lang]; ok {
		hint = fmt.Sprintf("\nThe text is most likely in %s.\n", name)
	}

	return `You are performing OCR (Optical Character Recognition) on a photo of a book cover or title page.
` + hint + `
Your task is to extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks
- Capitalization
- Order of text elements

INSTRUCTIONS:
1. Read the image carefully from top to bottom
2. Put each separate piece of text (title, subtitle, author, publisher) on its own line
3. Do not add any interpretation, commentary, or explanations
4. Do not skip any text, no matter how small or decorative
5. If text is unreadable, leave it out

OUTPUT FORMAT:
Provide ONLY the extracted text. Do not include phrases like "Here is the text:" or "The image contains:".

Example output:
THE ADVENTURES OF
TOM SAWYER
Mark Twain`
}
