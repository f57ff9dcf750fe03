package handlers

import (
	"net/http"
	"sort"
	"strings"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ids := h.cycles.Sessions()
		sort.Strings(ids)
		h.writeJSON(w, map[string]any{"sessions": ids})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail returns the latest published cycle for a session, or
// forgets the session on DELETE.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		snap, ok := h.cycles.Get(sessionID)
		if !ok {
			h.writeError(w, "Session not found", http.StatusNotFound)
			return
		}
		h.writeJSON(w, snap)
	case http.MethodDelete:
		h.cycles.Delete(sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
