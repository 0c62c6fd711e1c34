package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_router_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Playlist metrics
var (
	PlaylistBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_playlist_builds_total",
			Help: "Total number of playlist builds by trigger",
		},
		[]string{"trigger"}, // "startup", "manual", "watcher", "interval", "config"
	)

	PlaylistBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_router_playlist_build_duration_seconds",
			Help:    "Playlist build duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PlaylistItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_playlist_items",
			Help: "Number of items in the current playlist",
		},
	)

	PlaylistExcludedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_playlist_excluded_files",
			Help: "Files dropped by the extension denylist in the last build",
		},
	)

	PlaylistSkippedEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_playlist_skipped_entries_total",
			Help: "Total number of directory entries skipped during builds by reason",
		},
		[]string{"reason"}, // "permission", "not_exist", "symlink_loop", "other"
	)

	PlaylistLastBuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_playlist_last_build_timestamp",
			Help: "Unix timestamp of the last playlist build",
		},
	)

	LibraryRebuildRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_library_rebuild_running",
			Help: "Whether a playlist rebuild is in progress (1 = running, 0 = idle)",
		},
	)
)

// Library watcher metrics
var (
	LibraryWatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_library_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	LibraryWatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_router_library_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	LibraryWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_library_watched_directories",
			Help: "Number of directories currently being watched",
		},
	)
)

// Routing metrics
var (
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_resolutions_total",
			Help: "Total number of path resolutions by outcome",
		},
		[]string{"outcome"}, // "rule", "default"
	)

	RuleTableSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_rule_table_size",
			Help: "Number of entries in the custom demuxer table",
		},
	)

	RuleTableMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_rule_table_mutations_total",
			Help: "Total number of rule table mutations by operation",
		},
		[]string{"operation"},
	)

	RuleEditErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_router_rule_edit_errors_total",
			Help: "Total number of edits rejected because the command text did not parse",
		},
	)

	ConfigSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_config_saves_total",
			Help: "Total number of config file writes by status",
		},
		[]string{"status"},
	)
)

// Launcher metrics
var (
	LaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_launches_total",
			Help: "Total number of player launches by route and status",
		},
		[]string{"route", "status"}, // route: "rule", "default"; status: "started", "failed"
	)

	LaunchExitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_launch_exits_total",
			Help: "Total number of finished player processes by result",
		},
		[]string{"result"}, // "success", "error", "killed"
	)

	ActivePlayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_router_active_players",
			Help: "Number of player processes currently running",
		},
	)
)

// Play history metrics
var (
	HistoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_history_writes_total",
			Help: "Total number of play history writes by status",
		},
		[]string{"status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_router_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_router_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_router_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_router_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
