// Package logging provides a simple leveled logging interface for the
// media router.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
//
// Every emitted line is also kept in a process-wide ring buffer so that a
// front end can show the recent log (see Recent). The routing core never
// writes to it directly.
package logging
