// Package library keeps the current playlist of the configured music folder
// up to date.
//
// A Library rebuilds its playlist:
//   - once on Start
//   - on demand through Rescan or TriggerRescan
//   - when the options change (SetOptions)
//   - periodically when an interval is configured
//   - when the fsnotify watcher reports changes under the root, after the
//     events have settled for the debounce period
//
// Each rebuild scans into a fresh playlist which then replaces the current
// one under a lock, so Get, Len and Items always see a complete scan.
// Entries skipped during a scan are counted in metrics and logged at debug
// level.
package library
