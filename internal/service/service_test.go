package service

import (
	"testing"

	"github.com/lehigh-university-libraries/bookfinder/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	v := viper.New()
	config.SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestNewDefaults(t *testing.T) {
	svc, err := New(loadConfig(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "tesseract", svc.OCR.Default())
	assert.Equal(t, []string{"ollama", "tesseract"}, svc.OCR.Engines())
	assert.NotNil(t, svc.Resolver)
	assert.Equal(t, int64(10<<20), svc.Fetcher.MaxBytes)

	opts := svc.HandlerOptions()
	assert.Equal(t, svc.Config.Catalog.CoversURL, opts.CoversURL)
	assert.Equal(t, []string{"ollama", "tesseract"}, opts.Engines)
	assert.Same(t, svc.Fetcher, opts.Fetcher)
}

func TestNewRegistersKeyedProviders(t *testing.T) {
	svc, err := New(loadConfig(t, map[string]any{
		"ocr.provider":   "gemini",
		"gemini.api_key": "g-key",
		"openai.api_key": "o-key",
	}))
	require.NoError(t, err)

	assert.Equal(t, "gemini", svc.OCR.Default())
	assert.Equal(t, []string{"gemini", "ollama", "openai", "tesseract"}, svc.OCR.Engines())
}

func TestNewProviderWithoutKey(t *testing.T) {
	_, err := New(loadConfig(t, map[string]any{"ocr.provider": "openai"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}

func TestModelFor(t *testing.T) {
	cfg := &config.Config{OCR: config.OCRConfig{Provider: "ollama", Model: "llava:13b"}}

	assert.Equal(t, "llava:13b", modelFor(cfg, "ollama"))
	assert.Empty(t, modelFor(cfg, "openai"))
}
