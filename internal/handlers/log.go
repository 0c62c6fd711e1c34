package handlers

import (
	"net/http"

	"media-router/internal/logging"
)

// LogResponse holds the most recent log lines, oldest first.
type LogResponse struct {
	Total uint64         `json:"total"`
	Lines []logging.Line `json:"lines"`
}

// GetLog returns the last n log lines, including player output. n <= 0
// returns the whole buffer.
func (h *Handlers) GetLog(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 100)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, LogResponse{Total: logging.RecentTotal(), Lines: logging.Recent(n)}, http.StatusOK)
}
