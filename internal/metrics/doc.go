// Package metrics provides Prometheus instrumentation for the media router.
//
// All metrics are prefixed with "media_router_" and registered through
// promauto on import. Call InitializeMetrics once at startup so that every
// labeled series is exported from the first scrape.
//
// # Metric Categories
//
// HTTP:
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// Playlist and library:
//   - PlaylistBuildsTotal by trigger, PlaylistBuildDuration
//   - PlaylistItems, PlaylistExcludedFiles, PlaylistLastBuildTimestamp
//   - PlaylistSkippedEntries by reason (see SkipReason)
//   - LibraryRebuildRunning, LibraryWatcherEventsTotal, LibraryWatcherErrors,
//     LibraryWatchedDirectories
//
// Routing:
//   - ResolutionsTotal by outcome ("rule" or "default")
//   - RuleTableSize, RuleTableMutationsTotal, RuleEditErrorsTotal
//   - ConfigSavesTotal
//
// Launcher and history:
//   - LaunchesTotal, LaunchExitsTotal, ActivePlayers
//   - HistoryWritesTotal, DBQueryDuration
//
// Filesystem:
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures,
//     FilesystemStaleErrors, FilesystemRetryDuration
//
// # Observers
//
// Packages that must not import metrics report through small interfaces:
// NewFilesystemObserver implements filesystem.Observer and
// NewPlaylistObserver implements playlist.Observer.
//
// # Collector
//
// Collector polls a StatsProvider on an interval and refreshes the gauges
// that are cheaper to sample than to maintain on every change.
package metrics
