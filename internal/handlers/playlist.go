package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"media-router/internal/launcher"
	"media-router/internal/library"
	"media-router/internal/playlist"
)

// PlaylistEntry is an item with its position.
type PlaylistEntry struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

// PlaylistResponse is the current playlist.
type PlaylistResponse struct {
	Root       string          `json:"root"`
	Rebuilding bool            `json:"rebuilding"`
	Total      int             `json:"total"`
	Stats      playlist.Stats  `json:"stats"`
	Items      []PlaylistEntry `json:"items"`
}

// GetPlaylist returns the playlist. offset and limit page through it;
// limit 0 returns everything after offset.
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeJSONError(w, "invalid offset", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		writeJSONError(w, "invalid limit", http.StatusBadRequest)
		return
	}

	items := h.library.Items()
	resp := PlaylistResponse{
		Root:       h.library.Root(),
		Rebuilding: h.library.IsRebuilding(),
		Total:      len(items),
		Stats:      h.library.LastStats(),
		Items:      []PlaylistEntry{},
	}

	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	for i := offset; i < end; i++ {
		resp.Items = append(resp.Items, PlaylistEntry{Index: i, Path: items[i].Path})
	}

	writeJSONStatusCode(w, resp, http.StatusOK)
}

// TriggerRescan starts a playlist rebuild in the background.
func (h *Handlers) TriggerRescan(w http.ResponseWriter, _ *http.Request) {
	if h.library.IsRebuilding() {
		writeJSONStatus(w, "already rebuilding", http.StatusConflict)
		return
	}
	h.library.TriggerRescan(library.TriggerManual)
	writeJSONStatus(w, "rescan started", http.StatusAccepted)
}

// itemFromRequest picks the item addressed by the index route variable or
// by the index or path query parameters.
func (h *Handlers) itemFromRequest(r *http.Request) (playlist.Item, int, string) {
	raw, ok := mux.Vars(r)["index"]
	if !ok {
		raw = r.URL.Query().Get("index")
	}
	if raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			return playlist.Item{}, http.StatusBadRequest, "invalid index"
		}
		item, ok := h.library.Get(i)
		if !ok {
			return playlist.Item{}, http.StatusNotFound, "index out of range"
		}
		return item, 0, ""
	}

	if p := r.URL.Query().Get("path"); p != "" {
		return playlist.Item{Path: filepath.FromSlash(p)}, 0, ""
	}
	return playlist.Item{}, http.StatusBadRequest, "index or path is required"
}

// plan resolves item against the demuxer table.
func (h *Handlers) plan(item playlist.Item) launcher.Plan {
	h.mu.Lock()
	defer h.mu.Unlock()
	return launcher.NewPlan(h.cfg.CustomDemuxers, h.library.Root(), item, h.player, h.preferences())
}

// Resolve reports how an item would be played without starting anything.
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	item, code, msg := h.itemFromRequest(r)
	if code != 0 {
		writeJSONError(w, msg, code)
		return
	}
	writeJSONStatusCode(w, h.plan(item), http.StatusOK)
}

// Play starts the player for the item at the index route variable.
func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	item, code, msg := h.itemFromRequest(r)
	if code != 0 {
		writeJSONError(w, msg, code)
		return
	}

	info, err := h.launcher.Launch(r.Context(), h.plan(item))
	switch {
	case err == nil:
		writeJSONStatusCode(w, info, http.StatusAccepted)
	case errors.Is(err, fs.ErrNotExist):
		writeJSONError(w, "file no longer exists, rescan the library", http.StatusNotFound)
	case errors.Is(err, launcher.ErrNoReaderCommand):
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListSessions returns the running players.
func (h *Handlers) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatusCode(w, h.launcher.Active(), http.StatusOK)
}

// StopSession stops one player.
func (h *Handlers) StopSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "invalid session id", http.StatusBadRequest)
		return
	}
	if err := h.launcher.Stop(id); err != nil {
		if errors.Is(err, launcher.ErrSessionNotFound) {
			writeJSONError(w, "session not found", http.StatusNotFound)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StopAllSessions stops every player.
func (h *Handlers) StopAllSessions(w http.ResponseWriter, _ *http.Request) {
	h.launcher.StopAll()
	w.WriteHeader(http.StatusNoContent)
}
