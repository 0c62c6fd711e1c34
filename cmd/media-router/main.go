package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-router/internal/config"
	"media-router/internal/database"
	"media-router/internal/filesystem"
	"media-router/internal/handlers"
	"media-router/internal/launcher"
	"media-router/internal/library"
	"media-router/internal/logging"
	"media-router/internal/metrics"
	"media-router/internal/middleware"
	"media-router/internal/startup"
)

func main() {
	startTime := time.Now()

	// Load configuration
	cfg, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	logging.SetRingCapacity(cfg.LogBufferLines)

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	userCfg, found, loadErr := config.LoadIfExists(cfg.ConfigPath)
	var backup string
	if loadErr != nil && found {
		// Keep the unreadable file; the first change would replace it.
		if backup, err = config.Backup(cfg.ConfigPath); err != nil {
			logging.Error("Failed to back up %s: %v", cfg.ConfigPath, err)
		}
	}
	if userCfg == nil {
		userCfg = config.Default()
	}
	startup.LogUserConfig(cfg.ConfigPath, found, userCfg, loadErr, backup)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"library":  userCfg.Root(),
		"config":   filepath.Dir(cfg.ConfigPath),
		"database": cfg.DatabaseDir,
	}))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), cfg.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize launcher
	player := launcher.Player{Program: cfg.Player, Args: cfg.PlayerArgs}
	startup.LogLauncherInit(player.Program, player.Args)
	l := launcher.New(db, true)

	// Initialize library; the first build completes before serving
	startup.LogLibraryInit(userCfg.Root(), cfg.RescanInterval, cfg.WatchLibrary)
	lib := library.New(userCfg.PlaylistOptions(), cfg.RescanInterval, cfg.WatchLibrary)
	if err := lib.Start(); err != nil {
		logging.Error("Failed to start library: %v", err)
	}
	startup.LogLibraryStarted(lib.Len())

	// Initialize handlers
	h := handlers.New(userCfg, cfg.ConfigPath, lib, l, db, player)

	collector := metrics.NewCollector(metrics.StatsProviderFunc(func() metrics.Stats {
		return metrics.Stats{
			PlaylistItems: lib.Len(),
			Rules:         h.RuleCount(),
			ActivePlayers: l.ActiveCount(),
		}
	}), time.Minute)
	collector.Start()

	// Setup router
	router := handlers.NewRouter(h)
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	handler := middleware.Recover(middleware.Logger(loggingConfig)(router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsSrv = startMetricsServer(cfg.MetricsPort)
	}

	done := make(chan struct{})
	go handleShutdown(done, components{
		server:        srv,
		metricsServer: metricsSrv,
		collector:     collector,
		library:       lib,
		launcher:      l,
		db:            db,
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func startMetricsServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// components are stopped in order on shutdown.
type components struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	library       *library.Library
	launcher      *launcher.Launcher
	db            *database.Database
}

func handleShutdown(done chan<- struct{}, c components) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	c.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping library")
	c.library.Stop()
	startup.LogShutdownStepComplete("Library stopped")

	startup.LogShutdownStep("Stopping players")
	c.launcher.Cleanup()
	startup.LogShutdownStepComplete("Players stopped")

	if c.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing database")
	if err := c.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
