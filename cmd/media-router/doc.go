// Package main provides the entry point for the media router daemon.
//
// The daemon keeps a sorted playlist of the files under a music folder and
// plays items on request. Each item is checked against an ordered table of
// custom demuxers: the first entry whose predicate matches the file name
// supplies a reader command whose output is piped into the player. Files no
// entry matches are handed to the player directly.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads environment variables and prepares directories
//  2. User Configuration: loads the JSON config file with the music folder,
//     demuxer table and playback preferences. A file that cannot be read is
//     renamed to config.json.bak and defaults are used.
//  3. Database Initialization: opens the SQLite play history
//  4. Component Initialization:
//     - Launcher: starts reader and player processes
//     - Library: builds the playlist and keeps it current with a
//     filesystem watcher and optional periodic rescans
//     - Metrics Collector: refreshes Prometheus gauges every minute
//  5. HTTP Server Setup: registers routes and middleware, starts serving
//  6. Graceful Shutdown: handles SIGINT/SIGTERM and stops every component
//
// # HTTP Server
//
// The daemon runs two HTTP servers:
//
//  1. Main Server (default port 8080): the JSON API under /api plus
//     /health, /livez, /readyz and /version
//  2. Metrics Server (default port 9090, optional): /metrics
//
// # Environment Variables
//
//   - CONFIG_PATH: user config file (default: user config dir/mpvfrog/config.json)
//   - DATABASE_DIR: directory for the play history database (default: config dir)
//   - PORT: main HTTP server port (default: 8080)
//   - METRICS_PORT: metrics server port (default: 9090)
//   - METRICS_ENABLED: enable metrics server (default: true)
//   - PLAYER: player program (default: mpv)
//   - PLAYER_ARGS: arguments passed to the player on every launch
//   - RESCAN_INTERVAL: periodic rescan interval, 0 disables (default: 0)
//   - WATCH_LIBRARY: rebuild the playlist on filesystem changes (default: true)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//   - LOG_BUFFER_LINES: log lines kept for /api/log (default: 500)
//   - LOG_LEVEL: logging level (debug/info/warn/error)
//
// # Related Packages
//
//   - [media-router/internal/demux]: demuxer table and command templates
//   - [media-router/internal/playlist]: playlist builder
//   - [media-router/internal/library]: playlist ownership and rescans
//   - [media-router/internal/launcher]: process pipelines
//   - [media-router/internal/handlers]: HTTP API
package main
