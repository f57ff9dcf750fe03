// Package resolve turns typed text or OCR output into book search results.
//
// The image path runs TextCleaner, CandidateRanker and QueryFilter over the
// extracted text and then tries the surviving queries one at a time against
// the lookup service until one returns records.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

// Extractor pulls raw text out of an image. engine and language may be empty
// to use the extractor's defaults.
type Extractor interface {
	Extract(ctx context.Context, image []byte, engine, language string) (string, error)
}

// Resolver runs resolution cycles against a lookup service
type Resolver struct {
	lookup    Lookup
	extractor Extractor
}

// New creates a Resolver. extractor may be nil when only typed search is used.
func New(lookup Lookup, extractor Extractor) *Resolver {
	return &Resolver{
		lookup:    lookup,
		extractor: extractor,
	}
}

// ImageOptions controls an image or raw-text resolution cycle
type ImageOptions struct {
	Engine   string
	Language string
	// Order sorts a successful result set for display; SortNone keeps lookup order
	Order models.SortOrder
}

// Resolution describes one image or raw-text resolution cycle
type Resolution struct {
	State      State
	OCRText    string
	Lines      []string
	Candidates []Candidate
	Skipped    []Candidate
	Attempts   []Attempt
	Query      string
	Results    models.ResultSet
}

// AttemptedQueries lists the filtered queries in the order they were sent
func (r Resolution) AttemptedQueries() []string {
	queries := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		queries = append(queries, a.Query)
	}
	return queries
}

// FromQuery runs the typed-search path: the user's text is the query, so no
// cleaning or ranking applies and a single lookup is made. category filters
// by subject unless it is "all". The result is capped and then sorted.
func (r *Resolver) FromQuery(ctx context.Context, text, category string, order models.SortOrder) (models.ResultSet, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return models.ResultSet{}, ErrEmptyQuery
	}

	records, err := r.lookup.Search(ctx, query, category)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.ResultSet{}, ctxErr
		}
		slog.Error("Failed to fetch books", "query", query, "category", category, "err", err)
		return models.ResultSet{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if len(records) == 0 {
		slog.Info("Search returned no books", "query", query, "category", category)
		return models.ResultSet{}, ErrEmptyResult
	}

	rs := models.NewResultSet(SortRecords(records, order))
	slog.Info("Search complete", "query", query, "category", category, "found", len(records), "kept", rs.Len())
	return rs, nil
}

// FromImage extracts text from image and resolves it. Extraction failure is
// fatal for the cycle and returned as *OCRError.
func (r *Resolver) FromImage(ctx context.Context, image []byte, opts ImageOptions) (Resolution, error) {
	if r.extractor == nil {
		return Resolution{State: StateFatal}, &OCRError{Engine: opts.Engine, Err: errors.New("no text extractor configured")}
	}

	text, err := r.extractor.Extract(ctx, image, opts.Engine, opts.Language)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resolution{State: StateFatal}, ctxErr
		}
		slog.Error("OCR failed", "engine", opts.Engine, "err", err)
		return Resolution{State: StateFatal}, &OCRError{Engine: opts.Engine, Err: err}
	}

	return r.FromText(ctx, text, opts)
}

// FromText resolves already extracted text
func (r *Resolver) FromText(ctx context.Context, raw string, opts ImageOptions) (Resolution, error) {
	res := Resolution{
		State:   StateResolving,
		OCRText: raw,
	}

	res.Lines = CleanLines(raw)
	res.Candidates = RankCandidates(res.Lines)
	slog.Debug("OCR lines", "lines", res.Lines)

	loop, err := AttemptLoop(ctx, r.lookup, res.Candidates)
	res.Attempts = loop.Attempts
	res.Skipped = loop.Skipped

	switch {
	case err == nil:
		res.State = StateSuccess
		res.Query = loop.Query
		res.Results = SortResultSet(loop.Results, opts.Order)
		return res, nil
	case errors.Is(err, ErrNoMatch):
		res.State = StateNoMatch
		slog.Info("No candidate matched", "candidates", len(res.Candidates), "attempts", len(res.Attempts))
		return res, err
	default:
		res.State = StateFatal
		return res, err
	}
}
