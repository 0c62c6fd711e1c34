package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every API route of h.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Playlist and playback
	api.HandleFunc("/playlist", h.GetPlaylist).Methods(http.MethodGet)
	api.HandleFunc("/playlist/rescan", h.TriggerRescan).Methods(http.MethodPost)
	api.HandleFunc("/resolve", h.Resolve).Methods(http.MethodGet)
	api.HandleFunc("/play/{index:[0-9]+}", h.Play).Methods(http.MethodPost)
	api.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", h.StopAllSessions).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id:[0-9]+}", h.StopSession).Methods(http.MethodDelete)

	// Custom demuxers
	api.HandleFunc("/demuxers", h.ListDemuxers).Methods(http.MethodGet)
	api.HandleFunc("/demuxers", h.AddDemuxer).Methods(http.MethodPost)
	api.HandleFunc("/demuxers/{id}", h.GetDemuxer).Methods(http.MethodGet)
	api.HandleFunc("/demuxers/{id}", h.UpdateDemuxer).Methods(http.MethodPut)
	api.HandleFunc("/demuxers/{id}", h.DeleteDemuxer).Methods(http.MethodDelete)
	api.HandleFunc("/demuxers/{id}/clone", h.CloneDemuxer).Methods(http.MethodPost)
	api.HandleFunc("/demuxers/{id}/move", h.MoveDemuxer).Methods(http.MethodPost)
	api.HandleFunc("/demuxers/{id}/edit/{field}", h.GetEdit).Methods(http.MethodGet)
	api.HandleFunc("/demuxers/{id}/edit/{field}", h.BeginEdit).Methods(http.MethodPost)
	api.HandleFunc("/demuxers/{id}/edit/{field}", h.SetEditBuffer).Methods(http.MethodPut)
	api.HandleFunc("/demuxers/{id}/edit/{field}", h.EndEdit).Methods(http.MethodDelete)

	// Settings, log and history
	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/log", h.GetLog).Methods(http.MethodGet)
	api.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)

	return r
}
