// Package handlers provides the HTTP API of the media router.
//
// It includes handlers for:
//   - Browsing and rescanning the playlist
//   - Resolving an item to its player invocation and launching it
//   - Listing, adding, editing, cloning, reordering and removing custom demuxers
//   - Playback and library settings
//   - The recent log lines and the play history
//   - Health checks and version information
//
// Every change to the demuxer table or the settings is written back to the
// configuration file.
package handlers
