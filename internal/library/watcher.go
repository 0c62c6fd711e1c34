package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-router/internal/logging"
	"media-router/internal/metrics"
)

// startWatcher watches every directory under the current root and
// rebuilds the playlist once events settle.
func (l *Library) startWatcher() error {
	opts := l.Options()
	if opts.Root == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.LibraryWatcherErrors.Inc()
		l.setWatchState(nil, 0, err)
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	count := addDirectoriesToWatcher(watcher, opts.Root, opts.SkipHidden)
	metrics.LibraryWatchedDirectories.Set(float64(count))
	logging.Debug("Library watcher started, watching %d directories", count)

	stop := make(chan struct{})
	l.setWatchState(stop, count, nil)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if err := watcher.Close(); err != nil {
				logging.Error("failed to close file watcher: %v", err)
			}
		}()
		l.processWatcherEvents(watcher, stop, opts.Root, opts.SkipHidden)
	}()

	return nil
}

// stopWatcher stops the running watcher, if any.
func (l *Library) stopWatcher() {
	l.watchMu.Lock()
	stop := l.watchStop
	l.watchStop = nil
	l.watchCount = 0
	l.watchMu.Unlock()

	if stop != nil {
		close(stop)
	}
	metrics.LibraryWatchedDirectories.Set(0)
}

func (l *Library) setWatchState(stop chan struct{}, count int, err error) {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	l.watchStop = stop
	l.watchCount = count
	l.watchErr = err
}

func (l *Library) addWatchCount(delta int) {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	l.watchCount += delta
}

// addDirectoriesToWatcher adds root and its subdirectories to the watcher.
// Linked directories are not followed.
func addDirectoriesToWatcher(watcher *fsnotify.Watcher, root string, skipHidden bool) int {
	watchCount := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipHidden && path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.LibraryWatcherErrors.Inc()
		} else {
			watchCount++
		}
		return nil
	})
	if err != nil {
		logging.Error("failed to walk music folder for watcher: %v", err)
		metrics.LibraryWatcherErrors.Inc()
	}
	return watchCount
}

func (l *Library) processWatcherEvents(watcher *fsnotify.Watcher, stop <-chan struct{}, root string, skipHidden bool) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !l.handleWatcherEvent(watcher, event, root, skipHidden) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(l.debounce)
			} else {
				timer.Reset(l.debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.LibraryWatcherErrors.Inc()

		case <-fire:
			fire = nil
			logging.Debug("Library changes settled, rebuilding playlist")
			l.Rescan(TriggerWatcher)

		case <-stop:
			return
		case <-l.stopChan:
			return
		}
	}
}

// handleWatcherEvent records the event and reports whether it can change
// the playlist.
func (l *Library) handleWatcherEvent(watcher *fsnotify.Watcher, event fsnotify.Event, root string, skipHidden bool) bool {
	if skipHidden && isHidden(root, event.Name) {
		return false
	}

	metrics.LibraryWatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		info, err := os.Lstat(event.Name)
		if err == nil && info.IsDir() {
			count := addDirectoriesToWatcher(watcher, event.Name, skipHidden)
			l.addWatchCount(count)
			metrics.LibraryWatchedDirectories.Add(float64(count))
			logging.Debug("Added %d new directories to watcher under %s", count, event.Name)
		}
	}
	return true
}

// isHidden reports whether any component of path below root starts with
// a dot.
func isHidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
