package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-router/internal/config"
	"media-router/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds the process configuration read from the environment.
type Config struct {
	ConfigPath      string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	Player          string
	PlayerArgs      []string
	RescanInterval  time.Duration
	WatchLibrary    bool
	LogHealthChecks bool
	LogBufferLines  int

	// Derived paths
	DatabasePath string
}

// DefaultLogBufferLines is the ring size used when LOG_BUFFER_LINES is unset.
const DefaultLogBufferLines = logging.DefaultRingCapacity

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	defaultConfigPath, err := config.DefaultPath()
	if err != nil {
		logging.Warn("  Could not determine user config directory: %v", err)
		defaultConfigPath = "config.json"
	}

	configPath := getEnv("CONFIG_PATH", defaultConfigPath)
	databaseDir := getEnv("DATABASE_DIR", filepath.Dir(configPath))
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	player := getEnv("PLAYER", "mpv")
	playerArgs := strings.Fields(os.Getenv("PLAYER_ARGS"))
	rescanIntervalStr := getEnv("RESCAN_INTERVAL", "0")
	watchLibrary := getEnvBool("WATCH_LIBRARY", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	logBufferLines := getEnvInt("LOG_BUFFER_LINES", DefaultLogBufferLines)

	logging.Info("  CONFIG_PATH:         %s", configPath)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  PLAYER:              %s", player)
	logging.Info("  PLAYER_ARGS:         %v", playerArgs)
	logging.Info("  RESCAN_INTERVAL:     %s", rescanIntervalStr)
	logging.Info("  WATCH_LIBRARY:       %v", watchLibrary)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_BUFFER_LINES:    %d", logBufferLines)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	rescanInterval, err := time.ParseDuration(rescanIntervalStr)
	if err != nil || rescanInterval < 0 {
		logging.Warn("  Invalid RESCAN_INTERVAL, periodic rescans disabled")
		rescanInterval = 0
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	logging.Info("  Config file (absolute): %s", configPath)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(filepath.Dir(configPath), "config"); err != nil {
		logging.Warn("  Config directory issue: %v", err)
		logging.Warn("  Rule table changes will not be saved")
	}

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for play history): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	cfg := &Config{
		ConfigPath:      configPath,
		DatabaseDir:     databaseDir,
		Port:            port,
		MetricsPort:     metricsPort,
		MetricsEnabled:  metricsEnabled,
		Player:          player,
		PlayerArgs:      playerArgs,
		RescanInterval:  rescanInterval,
		WatchLibrary:    watchLibrary,
		LogHealthChecks: logHealthChecks,
		LogBufferLines:  logBufferLines,
		DatabasePath:    filepath.Join(databaseDir, "history.db"),
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Play history:     ENABLED (required)")
	logging.Info("    Library watcher:  %s", enabledString(cfg.WatchLibrary))
	logging.Info("    Periodic rescan:  %s", enabledString(cfg.RescanInterval > 0))
	logging.Info("    Metrics:          %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogUserConfig logs the outcome of loading the persisted user configuration.
// backup is where an unreadable file was moved, if anywhere.
func LogUserConfig(path string, found bool, cfg *config.Config, loadErr error, backup string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("USER CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	switch {
	case loadErr != nil:
		logging.Error("  Failed to load %s: %v", path, loadErr)
		if backup != "" {
			logging.Warn("  Moved the unreadable file to %s", backup)
		}
		logging.Warn("  Falling back to defaults")
	case !found:
		logging.Info("  No config file at %s, using defaults", path)
	default:
		logging.Info("  [OK] Loaded %s", path)
	}

	if cfg == nil {
		return
	}
	root := cfg.Root()
	if root == "" {
		root = "(not set)"
	}
	logging.Info("  Music folder:     %s", root)
	logging.Info("  Custom demuxers:  %d", cfg.CustomDemuxers.Len())
	logging.Info("  Follow symlinks:  %v", cfg.FollowSymlinks)
	logging.Info("  Skip hidden:      %v", cfg.SkipHidden)

	if logging.IsDebugEnabled() {
		for i, e := range cfg.CustomDemuxers.Entries() {
			logging.Debug("    [%d] %s: %s", i, e.DisplayName(), e.ReaderCmd.String())
		}
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Play history database initialized in %v", duration)
}

// LogLauncherInit logs launcher initialization and checks that the player
// program can be found.
func LogLauncherInit(player string, args []string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LAUNCHER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if err := checkProgram(player); err != nil {
		logging.Warn("  Player check failed: %v", err)
		logging.Warn("  Playback requests will fail until %s is installed", player)
	} else {
		logging.Info("  [OK] %s is available", player)
	}
	if len(args) > 0 {
		logging.Info("  Base arguments: %s", strings.Join(args, " "))
	}
}

// LogLibraryInit logs library initialization
func LogLibraryInit(root string, interval time.Duration, watch bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if root == "" {
		logging.Warn("  No music folder configured, playlist will be empty")
	} else {
		logging.Info("  Music folder:    %s", root)
	}
	if interval > 0 {
		logging.Info("  Rescan interval: %v", interval)
	} else {
		logging.Info("  Rescan interval: disabled")
	}
	logging.Info("  Watcher:         %s", enabledString(watch))
	logging.Info("  Starting library...")
}

// LogLibraryStarted logs successful library start
func LogLibraryStarted(items int) {
	logging.Info("  [OK] Library started with %d items", items)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(cfg ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", cfg.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", cfg.Port)
	if cfg.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", cfg.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    API:           http://localhost:%s/api", cfg.Port)
	if cfg.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", cfg.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
                    _ _                              _
  _ __ ___   ___  __| (_) __ _      _ __ ___  _   _| |_ ___ _ __
 | '_ ' _ \ / _ \/ _' | |/ _' |____| '__/ _ \| | | | __/ _ \ '__|
 | | | | | |  __/ (_| | | (_| |____| | | (_) | |_| | ||  __/ |
 |_| |_| |_|\___|\__,_|_|\__,_|    |_|  \___/ \__,_|\__\___|_|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkProgram(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
