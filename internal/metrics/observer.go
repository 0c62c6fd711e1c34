package metrics

import (
	"errors"
	"io/fs"

	"media-router/internal/filesystem"
	"media-router/internal/playlist"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem retry
// metrics.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(retryOp, volume).Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

// SkipReasons lists the label values of PlaylistSkippedEntries.
var SkipReasons = []string{"permission", "not_exist", "symlink_loop", "other"}

// SkipReason classifies an error reported for a skipped playlist entry.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, playlist.ErrSymlinkLoop):
		return "symlink_loop"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	case errors.Is(err, fs.ErrNotExist):
		return "not_exist"
	default:
		return "other"
	}
}

// playlistObserver implements playlist.Observer.
type playlistObserver struct {
	next playlist.Observer
}

// NewPlaylistObserver creates an observer that counts skipped entries by
// reason and then forwards to next, which may be nil.
func NewPlaylistObserver(next playlist.Observer) playlist.Observer {
	return &playlistObserver{next: next}
}

func (o *playlistObserver) SkippedEntry(path string, err error) {
	PlaylistSkippedEntries.WithLabelValues(SkipReason(err)).Inc()
	if o.next != nil {
		o.next.SkippedEntry(path, err)
	}
}
