package library

import (
	"sync"
	"sync/atomic"
	"time"

	"media-router/internal/logging"
	"media-router/internal/metrics"
	"media-router/internal/playlist"
)

// Build triggers, used as metric labels.
const (
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
	TriggerWatcher  = "watcher"
	TriggerInterval = "interval"
	TriggerConfig   = "config"
)

const defaultDebounce = 500 * time.Millisecond

// Library owns the current playlist. Rebuilds happen off to the side and
// the finished playlist is swapped in, so readers never see a partial scan.
type Library struct {
	mu        sync.RWMutex
	current   *playlist.Playlist
	opts      playlist.Options
	lastStats playlist.Stats
	lastBuild time.Time

	buildMu    sync.Mutex
	rebuilding atomic.Bool
	builds     atomic.Int64

	interval  time.Duration
	watch     bool
	debounce  time.Duration
	startTime time.Time
	onRebuild func(playlist.Stats)

	watchMu    sync.Mutex
	watchStop  chan struct{}
	watchCount int
	watchErr   error

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a library for opts. interval <= 0 disables periodic rescans;
// watch enables the filesystem watcher. The playlist stays empty until
// Start or Rescan is called.
func New(opts playlist.Options, interval time.Duration, watch bool) *Library {
	opts.Observer = nil
	return &Library{
		current:   &playlist.Playlist{},
		opts:      opts,
		interval:  interval,
		watch:     watch,
		debounce:  defaultDebounce,
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}
}

// SetDebounce sets how long the watcher waits for events to settle before
// rebuilding.
func (l *Library) SetDebounce(d time.Duration) {
	if d > 0 {
		l.debounce = d
	}
}

// SetOnRebuild sets a callback invoked after every rebuild.
func (l *Library) SetOnRebuild(callback func(playlist.Stats)) {
	l.onRebuild = callback
}

// Start performs the initial build and starts the background loops.
// A watcher that cannot be created is logged and reported through
// GetHealthStatus; it does not stop the library.
func (l *Library) Start() error {
	stats := l.Rescan(TriggerStartup)
	logging.Info("Initial playlist built: %d items in %v", stats.Items, stats.Duration)

	if l.watch {
		if err := l.startWatcher(); err != nil {
			logging.Warn("Library watcher unavailable: %v", err)
		}
	}

	if l.interval > 0 {
		l.wg.Add(1)
		go l.periodicRescan()
	}

	return nil
}

// Stop stops the background loops and waits for them to exit.
func (l *Library) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
}

// Options returns the build options in effect.
func (l *Library) Options() playlist.Options {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opts
}

// SetOptions replaces the build options and rebuilds the playlist. The
// watcher is moved to the new root when it changed.
func (l *Library) SetOptions(opts playlist.Options) playlist.Stats {
	opts.Observer = nil

	l.mu.Lock()
	rootChanged := l.opts.Root != opts.Root || l.opts.SkipHidden != opts.SkipHidden
	l.opts = opts
	l.mu.Unlock()

	stats := l.Rescan(TriggerConfig)

	if rootChanged && l.watch && !l.stopped() {
		l.stopWatcher()
		if err := l.startWatcher(); err != nil {
			logging.Warn("Library watcher unavailable: %v", err)
		}
	}
	return stats
}

// Rescan rebuilds the playlist synchronously and returns the build stats.
// Concurrent calls are serialized.
func (l *Library) Rescan(trigger string) playlist.Stats {
	l.buildMu.Lock()
	defer l.buildMu.Unlock()

	l.rebuilding.Store(true)
	metrics.LibraryRebuildRunning.Set(1)
	defer func() {
		l.rebuilding.Store(false)
		metrics.LibraryRebuildRunning.Set(0)
	}()

	opts := l.Options()
	opts.Observer = metrics.NewPlaylistObserver(skipLogger{})

	logging.Debug("Rebuilding playlist (trigger: %s, root: %q)", trigger, opts.Root)

	next := &playlist.Playlist{}
	stats := next.Rebuild(opts)
	now := time.Now()

	l.mu.Lock()
	l.current = next
	l.lastStats = stats
	l.lastBuild = now
	l.mu.Unlock()

	l.builds.Add(1)
	metrics.PlaylistBuildsTotal.WithLabelValues(trigger).Inc()
	metrics.PlaylistBuildDuration.Observe(stats.Duration.Seconds())
	metrics.PlaylistItems.Set(float64(stats.Items))
	metrics.PlaylistExcludedFiles.Set(float64(stats.Excluded))
	metrics.PlaylistLastBuildTimestamp.Set(float64(now.Unix()))

	if stats.Skipped > 0 {
		logging.Warn("Playlist rebuild skipped %d unreadable entries", stats.Skipped)
	}
	logging.Debug("Playlist rebuilt: %d items, %d excluded, %d hidden, %d skipped in %v",
		stats.Items, stats.Excluded, stats.Hidden, stats.Skipped, stats.Duration)

	if l.onRebuild != nil {
		l.onRebuild(stats)
	}
	return stats
}

// TriggerRescan rebuilds in the background.
func (l *Library) TriggerRescan(trigger string) {
	go l.Rescan(trigger)
}

// Get returns the item at index i of the current playlist.
func (l *Library) Get(i int) (playlist.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.Get(i)
}

// Len returns the number of items in the current playlist.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.Len()
}

// Items returns a copy of the current playlist.
func (l *Library) Items() []playlist.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.Items()
}

// Root returns the configured music folder.
func (l *Library) Root() string {
	return l.Options().Root
}

// IsRebuilding reports whether a rebuild is running.
func (l *Library) IsRebuilding() bool {
	return l.rebuilding.Load()
}

// LastStats returns the stats of the most recent build.
func (l *Library) LastStats() playlist.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastStats
}

func (l *Library) periodicRescan() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic rescan triggered")
			l.Rescan(TriggerInterval)
		case <-l.stopChan:
			return
		}
	}
}

func (l *Library) stopped() bool {
	select {
	case <-l.stopChan:
		return true
	default:
		return false
	}
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready              bool           `json:"ready"`
	Rebuilding         bool           `json:"rebuilding"`
	StartTime          time.Time      `json:"startTime"`
	Uptime             string         `json:"uptime"`
	Root               string         `json:"root"`
	LastBuild          time.Time      `json:"lastBuild,omitempty"`
	Builds             int64          `json:"builds"`
	LastStats          playlist.Stats `json:"lastStats"`
	Watching           bool           `json:"watching"`
	WatchedDirectories int            `json:"watchedDirectories"`
	WatcherError       string         `json:"watcherError,omitempty"`
}

// GetHealthStatus returns detailed health information.
func (l *Library) GetHealthStatus() HealthStatus {
	l.mu.RLock()
	status := HealthStatus{
		Ready:      l.builds.Load() > 0,
		Rebuilding: l.rebuilding.Load(),
		StartTime:  l.startTime,
		Uptime:     time.Since(l.startTime).String(),
		Root:       l.opts.Root,
		LastBuild:  l.lastBuild,
		Builds:     l.builds.Load(),
		LastStats:  l.lastStats,
	}
	l.mu.RUnlock()

	l.watchMu.Lock()
	status.Watching = l.watchStop != nil
	status.WatchedDirectories = l.watchCount
	if l.watchErr != nil {
		status.WatcherError = l.watchErr.Error()
	}
	l.watchMu.Unlock()

	return status
}

// skipLogger logs entries the playlist walk could not read.
type skipLogger struct{}

func (skipLogger) SkippedEntry(path string, err error) {
	logging.Debug("Skipping %s: %v", path, err)
}
