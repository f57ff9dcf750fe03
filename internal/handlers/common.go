package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/bookfinder/internal/images"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
	"github.com/lehigh-university-libraries/bookfinder/internal/storage"
)

// Options configures a Handler
type Options struct {
	CoversURL      string
	PlaceholderURL string
	MaxUploadBytes int64
	// Engines lists the OCR engines a request may name
	Engines []string
	Fetcher *images.Fetcher
}

type Handler struct {
	resolver *resolve.Resolver
	cycles   *storage.CycleStore
	fetcher  *images.Fetcher
	opts     Options
}

func New(resolver *resolve.Resolver, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = images.DefaultMaxBytes
	}
	if opts.Fetcher == nil {
		opts.Fetcher = images.NewFetcher()
	}
	opts.Fetcher.MaxBytes = opts.MaxUploadBytes

	return &Handler{
		resolver: resolver,
		cycles:   storage.New(),
		fetcher:  opts.Fetcher,
		opts:     opts,
	}
}

// Routes registers every API endpoint on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/search", h.HandleSearch)
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
}

// Cycle status values reported to the client
const (
	StatusSuccess      = "success"
	StatusEmpty        = "empty"
	StatusNoMatch      = "no_match"
	StatusOCRFailed    = "ocr_failed"
	StatusLookupFailed = "lookup_failed"
	StatusSuperseded   = "superseded"
	StatusError        = "error"
)

const supersededMessage = "Superseded by a newer request."

// outcome maps a cycle error onto its status name and HTTP code
func outcome(err error) (string, int) {
	var ocrErr *resolve.OCRError
	switch {
	case err == nil:
		return StatusSuccess, http.StatusOK
	case errors.As(err, &ocrErr):
		return StatusOCRFailed, http.StatusUnprocessableEntity
	case errors.Is(err, resolve.ErrEmptyResult):
		return StatusEmpty, http.StatusNotFound
	case errors.Is(err, resolve.ErrNoMatch):
		return StatusNoMatch, http.StatusNotFound
	case errors.Is(err, resolve.ErrLookupFailed):
		return StatusLookupFailed, http.StatusBadGateway
	case errors.Is(err, resolve.ErrEmptyQuery):
		return StatusError, http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return StatusSuperseded, http.StatusConflict
	default:
		return StatusError, http.StatusInternalServerError
	}
}

// finish publishes snap for cycle c and writes the response. A cycle that
// was superseded while running gets 409 and its result is dropped.
func (h *Handler) finish(w http.ResponseWriter, c *storage.Cycle, snap models.CycleSnapshot, err error) {
	status, code := outcome(err)
	snap.Status = status
	snap.Message = resolve.UserMessage(err)
	if snap.Books == nil {
		snap.Books = []models.BookView{}
	}

	published, ok := h.cycles.Complete(c, snap)
	if !ok {
		slog.Info("Discarding superseded cycle", "session_id", c.Session, "cycle_id", c.ID)
		published.Status = StatusSuperseded
		published.Message = supersededMessage
		published.Books = []models.BookView{}
		code = http.StatusConflict
	}

	h.writeJSONStatus(w, code, published)
}

func (h *Handler) views(rs models.ResultSet) []models.BookView {
	return models.NewBookViews(rs, h.opts.CoversURL, h.opts.PlaceholderURL)
}

func (h *Handler) knownEngine(name string) bool {
	if name == "" || len(h.opts.Engines) == 0 {
		return true
	}
	for _, e := range h.opts.Engines {
		if e == name {
			return true
		}
	}
	return false
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Warn(message, "code", code)
	h.writeJSONStatus(w, code, map[string]string{
		"status":  StatusError,
		"message": message,
	})
}
