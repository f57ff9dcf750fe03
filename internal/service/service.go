// Package service assembles the lookup client, OCR engines and resolver
// from a loaded configuration.
package service

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/bookfinder/internal/catalog"
	"github.com/lehigh-university-libraries/bookfinder/internal/config"
	"github.com/lehigh-university-libraries/bookfinder/internal/gemini"
	"github.com/lehigh-university-libraries/bookfinder/internal/handlers"
	"github.com/lehigh-university-libraries/bookfinder/internal/images"
	"github.com/lehigh-university-libraries/bookfinder/internal/ocr"
	"github.com/lehigh-university-libraries/bookfinder/internal/ocr/tesseract"
	"github.com/lehigh-university-libraries/bookfinder/internal/ollama"
	"github.com/lehigh-university-libraries/bookfinder/internal/openai"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
)

type Service struct {
	Config   *config.Config
	Catalog  *catalog.Client
	OCR      *ocr.Service
	Resolver *resolve.Resolver
	Fetcher  *images.Fetcher
}

// New builds every component named by cfg. The engine selected by
// ocr.provider becomes the default; vision providers without credentials
// are left unregistered.
func New(cfg *config.Config) (*Service, error) {
	client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout,
		catalog.WithMaxRetries(cfg.Catalog.MaxRetries),
		catalog.WithMinInterval(cfg.Catalog.MinInterval),
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
	)

	engines, err := NewOCRService(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := images.NewFetcher()
	fetcher.MaxBytes = cfg.Server.MaxUploadBytes()

	return &Service{
		Config:   cfg,
		Catalog:  client,
		OCR:      engines,
		Resolver: resolve.New(client, engines),
		Fetcher:  fetcher,
	}, nil
}

// NewOCRService registers the configured OCR engines
func NewOCRService(cfg *config.Config) (*ocr.Service, error) {
	svc := ocr.NewService(cfg.OCR.Language)
	svc.Register(tesseract.New())

	svc.Register(ocr.NewProviderEngine("ollama", ollama.New(cfg.Ollama.URL), modelFor(cfg, "ollama")))
	if cfg.OpenAI.APIKey != "" {
		svc.Register(ocr.NewProviderEngine("openai", openai.New(cfg.OpenAI.APIKey), modelFor(cfg, "openai")))
	}
	if cfg.Gemini.APIKey != "" {
		svc.Register(ocr.NewProviderEngine("gemini", gemini.New(cfg.Gemini.APIKey), modelFor(cfg, "gemini")))
	}

	if err := svc.SetDefault(cfg.OCR.Provider); err != nil {
		return nil, fmt.Errorf("failed to select ocr.provider %q (is its API key set?): %w", cfg.OCR.Provider, err)
	}

	slog.Debug("OCR engines registered", "engines", svc.Engines(), "default", svc.Default())
	return svc, nil
}

// modelFor applies ocr.model to the default provider only. Other providers
// fall back to their own default model.
func modelFor(cfg *config.Config, provider string) string {
	if provider == cfg.OCR.Provider {
		return cfg.OCR.Model
	}
	return ""
}

// HandlerOptions returns the HTTP handler options for this configuration
func (s *Service) HandlerOptions() handlers.Options {
	return handlers.Options{
		CoversURL:      s.Config.Catalog.CoversURL,
		PlaceholderURL: s.Config.Catalog.PlaceholderURL,
		MaxUploadBytes: s.Config.Server.MaxUploadBytes(),
		Engines:        s.OCR.Engines(),
		Fetcher:        s.Fetcher,
	}
}

// Handler returns an HTTP handler for the API
func (s *Service) Handler() *handlers.Handler {
	return handlers.New(s.Resolver, s.HandlerOptions())
}
