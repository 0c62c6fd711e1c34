// Package playlist builds the list of playable files under the music folder.
//
// A build walks the whole tree below the root:
//   - symbolic links are followed only when FollowSymlinks is set, with
//     protection against links that point back to an ancestor
//   - with SkipHidden, dot-prefixed entries are pruned together with their
//     subtrees
//   - only regular files are kept, minus the fixed jpg/png/txt denylist
//   - entries that fail to read are skipped and reported to the Observer
//
// Items hold paths relative to the root and are sorted component-wise.
// Every build starts from an empty list; there are no incremental updates.
// Building does blocking filesystem I/O and is not cancellable; callers that
// need responsiveness run it on their own goroutine (see package library).
package playlist
