package handlers

import (
	"net/http"

	"media-router/internal/database"
	"media-router/internal/logging"
)

// GetHistory returns the most recent launches, newest first.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSONError(w, "play history is not available", http.StatusServiceUnavailable)
		return
	}
	limit, err := queryInt(r, "limit", database.DefaultHistoryLimit)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	plays, err := h.history.RecentPlays(r.Context(), limit)
	if err != nil {
		logging.Error("failed to read play history: %v", err)
		writeJSONError(w, "failed to read play history", http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, plays, http.StatusOK)
}
