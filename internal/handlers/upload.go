package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/images"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
	"github.com/lehigh-university-libraries/bookfinder/internal/resolve"
)

// multipartOverhead leaves room for form fields around the file part
const multipartOverhead = 1 << 20

type uploadParams struct {
	SessionID string
	Sort      string
	Language  string
	Engine    string
}

// HandleUpload resolves books from a cover photo, sent either as a multipart
// file (field "file" or "files") or as JSON {"image_url": ...}.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL  string `json:"image_url"`
		SessionID string `json:"session_id"`
		Sort      string `json:"sort"`
		Language  string `json:"language"`
		Engine    string `json:"engine"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(request.ImageURL, "http://") && !strings.HasPrefix(request.ImageURL, "https://") {
		h.writeError(w, "image_url must be an http or https URL", http.StatusBadRequest)
		return
	}

	data, _, err := h.fetcher.FetchImage(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.resolveImage(w, r, data, uploadParams{
		SessionID: request.SessionID,
		Sort:      request.Sort,
		Language:  request.Language,
		Engine:    request.Engine,
	})
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+multipartOverhead)

	file, _, err := r.FormFile("files")
	if err != nil && !bodyTooLarge(err) {
		file, _, err = r.FormFile("file")
	}
	if err != nil {
		if bodyTooLarge(err) {
			h.writeError(w, h.tooLargeMessage(), http.StatusBadRequest)
			return
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > h.opts.MaxUploadBytes {
		h.writeError(w, h.tooLargeMessage(), http.StatusBadRequest)
		return
	}

	if _, err := images.Inspect(data); err != nil {
		h.writeError(w, "Uploaded file is not a supported image", http.StatusBadRequest)
		return
	}

	h.resolveImage(w, r, data, uploadParams{
		SessionID: r.FormValue("session_id"),
		Sort:      r.FormValue("sort"),
		Language:  r.FormValue("language"),
		Engine:    r.FormValue("engine"),
	})
}

func bodyTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	return errors.As(err, &tooBig)
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large (max %dMB)", h.opts.MaxUploadBytes>>20)
}

// resolveImage runs one image cycle for validated image data
func (h *Handler) resolveImage(w http.ResponseWriter, r *http.Request, data []byte, p uploadParams) {
	order, err := models.ParseSortOrder(p.Sort, models.SortNone)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	engine := strings.ToLower(strings.TrimSpace(p.Engine))
	if !h.knownEngine(engine) {
		h.writeError(w, fmt.Sprintf("Unknown OCR engine %q", p.Engine), http.StatusBadRequest)
		return
	}

	ctx, cycle := h.cycles.Begin(r.Context(), p.SessionID)
	slog.Info("Resolving image", "session_id", cycle.Session, "cycle_id", cycle.ID, "bytes", len(data), "engine", engine)

	res, err := h.resolver.FromImage(ctx, data, resolve.ImageOptions{
		Engine:   engine,
		Language: p.Language,
		Order:    order,
	})

	snap := models.CycleSnapshot{
		Source:    "image",
		Query:     res.Query,
		OCRText:   res.OCRText,
		Attempts:  res.AttemptedQueries(),
		StartedAt: cycle.StartedAt,
	}
	if err == nil {
		snap.Books = h.views(res.Results)
	}
	h.finish(w, cycle, snap, err)
}
