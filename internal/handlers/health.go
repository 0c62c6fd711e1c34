package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-router/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Rebuilding bool   `json:"rebuilding"`
	LastBuild  string `json:"lastBuild,omitempty"`

	Root          string `json:"root"`
	PlaylistItems int    `json:"playlistItems"`
	Rules         int    `json:"rules"`
	ActivePlayers int    `json:"activePlayers"`

	Watching           bool   `json:"watching"`
	WatchedDirectories int    `json:"watchedDirectories"`
	WatcherError       string `json:"watcherError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.library.GetHealthStatus()

	response := HealthResponse{
		Ready:              status.Ready,
		Version:            startup.Version,
		Uptime:             status.Uptime,
		Rebuilding:         status.Rebuilding,
		Root:               status.Root,
		PlaylistItems:      h.library.Len(),
		Rules:              h.RuleCount(),
		Watching:           status.Watching,
		WatchedDirectories: status.WatchedDirectories,
		WatcherError:       status.WatcherError,
		GoVersion:          runtime.Version(),
		NumCPU:             runtime.NumCPU(),
		NumGoroutine:       runtime.NumGoroutine(),
	}
	if h.launcher != nil {
		response.ActivePlayers = h.launcher.ActiveCount()
	}

	if status.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}
	if !status.LastBuild.IsZero() {
		response.LastBuild = status.LastBuild.Format(time.RFC3339)
	}
	if status.WatcherError != "" {
		response.Status = statusDegraded
	}

	// 503 only if the first build has not finished
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONStatusCode(w, response, code)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only once the first playlist build finished
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.library.GetHealthStatus().Ready {
		writeJSONStatus(w, "ready", http.StatusOK)
		return
	}
	writeJSONStatus(w, "not_ready", http.StatusServiceUnavailable)
}
