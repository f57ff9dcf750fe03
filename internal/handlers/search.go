package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

type searchRequest struct {
	Query     string `json:"query"`
	Category  string `json:"category"`
	Sort      string `json:"sort"`
	SessionID string `json:"session_id"`
}

// HandleSearch runs a typed search. GET reads q (or query), category, sort
// and session_id from the URL; POST takes the same fields as JSON.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req = searchRequest{
			Query:     q.Get("q"),
			Category:  q.Get("category"),
			Sort:      q.Get("sort"),
			SessionID: q.Get("session_id"),
		}
		if req.Query == "" {
			req.Query = q.Get("query")
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	order, err := models.ParseSortOrder(req.Sort, models.SortNewest)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, "query is required", http.StatusBadRequest)
		return
	}
	category := models.NormalizeCategory(req.Category)

	ctx, cycle := h.cycles.Begin(r.Context(), req.SessionID)
	snap := models.CycleSnapshot{
		Source:    "query",
		Query:     strings.TrimSpace(req.Query),
		StartedAt: cycle.StartedAt,
	}

	rs, err := h.resolver.FromQuery(ctx, req.Query, category, order)
	if err == nil {
		snap.Books = h.views(rs)
	}
	h.finish(w, cycle, snap, err)
}
