package handlers

import (
	"context"
	"sync"

	"media-router/internal/config"
	"media-router/internal/database"
	"media-router/internal/demux"
	"media-router/internal/launcher"
	"media-router/internal/library"
	"media-router/internal/logging"
	"media-router/internal/metrics"
)

// HistoryStore reads the play history. *database.Database implements it.
type HistoryStore interface {
	RecentPlays(ctx context.Context, limit int) ([]database.Play, error)
}

// Handlers serves the API. The configuration, and with it the demuxer
// table, is only touched while holding mu.
type Handlers struct {
	library    *library.Library
	launcher   *launcher.Launcher
	history    HistoryStore
	player     launcher.Player
	configPath string

	mu     sync.Mutex
	cfg    *config.Config
	editor demux.Editor
}

// New creates the handlers. cfg nil means defaults; history may be nil
// when no database is available.
func New(cfg *config.Config, configPath string, lib *library.Library, l *launcher.Launcher, history HistoryStore, player launcher.Player) *Handlers {
	if cfg == nil {
		cfg = config.Default()
	}
	if cfg.CustomDemuxers == nil {
		cfg.CustomDemuxers = demux.NewTable()
	}
	metrics.RuleTableSize.Set(float64(cfg.CustomDemuxers.Len()))
	return &Handlers{
		library:    lib,
		launcher:   l,
		history:    history,
		player:     player,
		configPath: configPath,
		cfg:        cfg,
	}
}

// RuleCount returns the number of custom demuxers.
func (h *Handlers) RuleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.CustomDemuxers.Len()
}

// preferences returns the player flags derived from the settings. Callers
// hold mu.
func (h *Handlers) preferences() launcher.Preferences {
	return launcher.Preferences{
		Volume: h.cfg.Volume,
		Speed:  h.cfg.Speed,
		Video:  h.cfg.Video,
	}
}

// save writes the configuration file. Callers hold mu.
func (h *Handlers) save() error {
	if h.configPath == "" {
		return nil
	}
	if err := h.cfg.Save(h.configPath); err != nil {
		metrics.ConfigSavesTotal.WithLabelValues("error").Inc()
		logging.Error("failed to save config to %s: %v", h.configPath, err)
		return err
	}
	metrics.ConfigSavesTotal.WithLabelValues("success").Inc()
	return nil
}

// mutated records a rule table change and persists it. Callers hold mu.
func (h *Handlers) mutated(operation string) error {
	metrics.RuleTableMutationsTotal.WithLabelValues(operation).Inc()
	metrics.RuleTableSize.Set(float64(h.cfg.CustomDemuxers.Len()))
	logging.Debug("Demuxer table %s, %d entries", operation, h.cfg.CustomDemuxers.Len())
	return h.save()
}
