package handlers

import (
	"math"
	"net/http"

	"media-router/internal/playlist"
)

// Settings are the user preferences exposed over the API.
type Settings struct {
	MusicFolder    string  `json:"musicFolder"`
	FollowSymlinks bool    `json:"followSymlinks"`
	SkipHidden     bool    `json:"skipHidden"`
	Volume         uint8   `json:"volume"`
	Speed          float64 `json:"speed"`
	Video          bool    `json:"video"`
}

// SettingsUpdate changes the fields that are present.
type SettingsUpdate struct {
	MusicFolder    *string  `json:"musicFolder"`
	FollowSymlinks *bool    `json:"followSymlinks"`
	SkipHidden     *bool    `json:"skipHidden"`
	Volume         *uint8   `json:"volume"`
	Speed          *float64 `json:"speed"`
	Video          *bool    `json:"video"`
}

// SettingsResponse is returned by UpdateSettings. Stats is set when the
// change caused a rebuild.
type SettingsResponse struct {
	Settings
	Stats *playlist.Stats `json:"stats,omitempty"`
}

// settingsLocked reads the settings. Callers hold mu.
func (h *Handlers) settingsLocked() Settings {
	return Settings{
		MusicFolder:    h.cfg.Root(),
		FollowSymlinks: h.cfg.FollowSymlinks,
		SkipHidden:     h.cfg.SkipHidden,
		Volume:         h.cfg.Volume,
		Speed:          h.cfg.Speed,
		Video:          h.cfg.Video,
	}
}

// GetSettings returns the current settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSONStatusCode(w, h.settingsLocked(), http.StatusOK)
}

// UpdateSettings applies and saves the settings in the body. Changing the
// music folder or the walk options rebuilds the playlist before returning.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Speed != nil && (*req.Speed <= 0 || math.IsNaN(*req.Speed) || math.IsInf(*req.Speed, 0)) {
		writeJSONError(w, "speed must be a positive number", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	before := h.cfg.PlaylistOptions()
	if req.MusicFolder != nil {
		h.cfg.SetRoot(*req.MusicFolder)
	}
	if req.FollowSymlinks != nil {
		h.cfg.FollowSymlinks = *req.FollowSymlinks
	}
	if req.SkipHidden != nil {
		h.cfg.SkipHidden = *req.SkipHidden
	}
	if req.Volume != nil {
		h.cfg.Volume = *req.Volume
	}
	if req.Speed != nil {
		h.cfg.Speed = *req.Speed
	}
	if req.Video != nil {
		h.cfg.Video = *req.Video
	}
	after := h.cfg.PlaylistOptions()
	resp := SettingsResponse{Settings: h.settingsLocked()}
	saveErr := h.save()
	h.mu.Unlock()

	if after != before {
		stats := h.library.SetOptions(after)
		resp.Stats = &stats
	}

	if saveErr != nil {
		writeJSONError(w, saveFailedMessage(saveErr), http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, resp, http.StatusOK)
}
