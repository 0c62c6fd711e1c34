// Package startup handles process initialization, configuration loading,
// and startup/shutdown logging for the media router daemon.
//
// # Configuration
//
// Process configuration is loaded from environment variables via [LoadConfig]:
//
//   - CONFIG_PATH: Path to the user configuration file
//     (default: <user config dir>/mpvfrog/config.json)
//   - DATABASE_DIR: Directory for the play history database
//     (default: directory of CONFIG_PATH)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - PLAYER: Player program (default: mpv)
//   - PLAYER_ARGS: Extra arguments given to every player invocation
//   - RESCAN_INTERVAL: Periodic library rescan as Go duration (default: 0, disabled)
//   - WATCH_LIBRARY: Rebuild the playlist on filesystem changes (default: true)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_BUFFER_LINES: Lines kept for GET /api/log (default: 500)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// The user configuration (music folder, demuxer rules, playback preferences)
// lives in the file named by CONFIG_PATH and is handled by package config.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogUserConfig]: Result of loading the user configuration
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogLauncherInit]: Player availability
//   - [LogLibraryInit]: Library folder, rescan interval, watcher
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownStep], [LogShutdownComplete]
package startup
