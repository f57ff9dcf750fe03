package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrEmptyImage is returned when Extract is called without image data
var ErrEmptyImage = errors.New("empty image")

// Engine recognises text in an image. lang is a hint such as "eng" and may
// be ignored by engines that detect language themselves.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, lang string) (string, error)
}

// Service selects an Engine by name and runs extraction
type Service struct {
	mu          sync.RWMutex
	engines     map[string]Engine
	defaultName string
	language    string
}

// NewService creates a Service whose default language hint is language
func NewService(language string) *Service {
	if language == "" {
		language = "eng"
	}
	return &Service{
		engines:  make(map[string]Engine),
		language: language,
	}
}

// Register adds an engine. The first engine registered becomes the default.
func (s *Service) Register(e Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.ToLower(e.Name())
	s.engines[name] = e
	if s.defaultName == "" {
		s.defaultName = name
	}
}

// SetDefault makes name the engine used when a request names none
func (s *Service) SetDefault(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.ToLower(name)
	if _, ok := s.engines[name]; !ok {
		return fmt.Errorf("unsupported OCR engine: %s", name)
	}
	s.defaultName = name
	return nil
}

// Engines lists registered engine names in sorted order
func (s *Service) Engines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the default engine name
func (s *Service) Default() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultName
}

func (s *Service) engine(name string) (Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name == "" {
		name = s.defaultName
	}
	e, ok := s.engines[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported OCR engine: %s", name)
	}
	return e, nil
}

// Extract runs the named engine (or the default) over image
func (s *Service) Extract(ctx context.Context, image []byte, engine, language string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}

	e, err := s.engine(engine)
	if err != nil {
		return "", err
	}
	if language == "" {
		language = s.language
	}

	start := time.Now()
	text, err := e.Recognize(ctx, image, language)
	if err != nil {
		return "", fmt.Errorf("failed to extract text with %s: %w", e.Name(), err)
	}

	slog.Info("Extracted OCR text", "engine", e.Name(), "language", language, "length", len(text), "duration", time.Since(start))
	return text, nil
}
