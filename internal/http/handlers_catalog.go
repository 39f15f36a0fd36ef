package http

import "net/http"

// handleListSubscriptions serves the static subscription price list so
// clients can prefill recurring subscription expenses.
func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Services())
}
