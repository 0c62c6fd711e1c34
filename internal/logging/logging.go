package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	levelMu    sync.RWMutex
	levelSet   bool
	levelValue LogLevel
)

// ParseLevel converts a LOG_LEVEL value to a LogLevel. Unknown or empty
// values map to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// levelFromEnv reads DEBUG first, then LOG_LEVEL.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// GetLevel returns the current log level, reading the environment on first
// use.
func GetLevel() LogLevel {
	levelMu.RLock()
	if levelSet {
		l := levelValue
		levelMu.RUnlock()
		return l
	}
	levelMu.RUnlock()

	levelMu.Lock()
	defer levelMu.Unlock()
	if !levelSet {
		levelValue = levelFromEnv()
		levelSet = true
	}
	return levelValue
}

// SetLevel overrides the level taken from the environment.
func SetLevel(l LogLevel) {
	levelMu.Lock()
	levelValue = l
	levelSet = true
	levelMu.Unlock()
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logf(level LogLevel, prefix, format string, args ...interface{}) {
	if GetLevel() > level {
		return
	}
	msg := prefix + fmt.Sprintf(format, args...)
	log.Print(msg)
	defaultRing.Load().Add(msg)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, "[DEBUG] ", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO] ", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, "[WARN] ", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logf(LevelError, "[ERROR] ", format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	msg := "[FATAL] " + fmt.Sprintf(format, args...)
	defaultRing.Load().Add(msg)
	log.Fatal(msg)
}

// Printf logs regardless of level.
func Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	defaultRing.Load().Add(msg)
}

// Println logs regardless of level, formatting like fmt.Sprintln.
func Println(args ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	log.Print(msg)
	defaultRing.Load().Add(msg)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
