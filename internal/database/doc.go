// Package database stores the play history of the media router in SQLite.
//
// Every player launch is recorded with the playlist path, the name of the
// demuxer rule that handled it (empty for the default route), the program
// and arguments that were run and, once the process exits, its exit status.
//
// The database uses WAL mode and creates its schema on open.
package database
