package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, trigger := range []string{"startup", "manual", "watcher", "interval", "config"} {
		PlaylistBuildsTotal.WithLabelValues(trigger)
	}

	for _, reason := range SkipReasons {
		PlaylistSkippedEntries.WithLabelValues(reason)
	}

	for _, event := range []string{"create", "remove", "rename", "write", "chmod"} {
		LibraryWatcherEventsTotal.WithLabelValues(event)
	}

	for _, outcome := range []string{"rule", "default"} {
		ResolutionsTotal.WithLabelValues(outcome)
		for _, status := range []string{"started", "failed"} {
			LaunchesTotal.WithLabelValues(outcome, status)
		}
	}

	for _, result := range []string{"success", "error", "killed"} {
		LaunchExitsTotal.WithLabelValues(result)
	}

	for _, op := range []string{"add", "remove", "clone", "move", "update", "edit"} {
		RuleTableMutationsTotal.WithLabelValues(op)
	}

	for _, status := range []string{"success", "error"} {
		ConfigSavesTotal.WithLabelValues(status)
		HistoryWritesTotal.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "record_play", "finish_play", "recent_plays"} {
		DBQueryDuration.WithLabelValues(op)
	}

	volumes := []string{"library", "config", "database", "unknown"}
	for _, op := range []string{"stat", "readfile"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
