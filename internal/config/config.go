package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"media-router/internal/demux"
	"media-router/internal/filesystem"
	"media-router/internal/playlist"
)

const (
	// DefaultVolume is the player volume used when none is stored.
	DefaultVolume = 50
	// DefaultSpeed is the playback speed used when none is stored.
	DefaultSpeed = 1.0
)

// ThemeColors is a palette of twelve RGB triples.
type ThemeColors [12][3]uint8

// Config is the persisted user configuration. Missing fields take their
// defaults when decoding.
type Config struct {
	// MusicFolder is the playlist root; nil when not configured yet.
	MusicFolder *string `json:"music_folder"`
	// CustomDemuxers are consulted in order to pick a reader for a file.
	CustomDemuxers *demux.Table `json:"custom_demuxers"`
	Volume         uint8        `json:"volume"`
	Speed          float64      `json:"speed"`
	Video          bool         `json:"video"`
	Theme          *ThemeColors `json:"theme"`
	// FollowSymlinks makes playlist builds follow symbolic links.
	FollowSymlinks bool `json:"follow_symlinks"`
	// SkipHidden prunes dot-prefixed files and folders from playlist builds.
	SkipHidden bool `json:"skip_hidden"`
	// FallbackFontPaths are loaded by the front end on startup.
	FallbackFontPaths []string `json:"fallback_font_paths"`
}

var errTrailingData = errors.New("could not decode config: unexpected data after the top-level object")

// Default returns a configuration with every field at its default.
func Default() *Config {
	return &Config{
		CustomDemuxers:    demux.NewTable(),
		Volume:            DefaultVolume,
		Speed:             DefaultSpeed,
		FallbackFontPaths: []string{},
	}
}

// DefaultPath returns the platform config location, e.g.
// ~/.config/mpvfrog/config.json on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(dir, "mpvfrog", "config.json"), nil
}

// Parse decodes a configuration document. Fields that are absent keep
// their defaults; unknown predicate or argument variants are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	if cfg.CustomDemuxers == nil {
		cfg.CustomDemuxers = demux.NewTable()
	}
	if cfg.FallbackFontPaths == nil {
		cfg.FallbackFontPaths = []string{}
	}
	return cfg, nil
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(data)
}

// LoadIfExists is like Load but reports found=false, without error, when
// the file does not exist.
func LoadIfExists(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, true, err
	}
	return cfg, true, nil
}

// maxBackups bounds the numbered names tried by Backup.
const maxBackups = 100

// Backup renames the file at path out of the way so a later Save does not
// replace it. The new name is path+".bak", or path+".bak.N" when that is
// taken. It returns the new name.
func Backup(path string) (string, error) {
	name := path + ".bak"
	for n := 1; ; n++ {
		if _, err := os.Lstat(name); errors.Is(err, fs.ErrNotExist) {
			break
		}
		if n > maxBackups {
			return "", fmt.Errorf("could not back up config file: too many backups of %s", path)
		}
		name = fmt.Sprintf("%s.bak.%d", path, n)
	}
	if err := os.Rename(path, name); err != nil {
		return "", fmt.Errorf("could not back up config file: %w", err)
	}
	return name, nil
}

// Marshal encodes the configuration as indented JSON.
func (c *Config) Marshal() ([]byte, error) {
	out := *c
	if out.CustomDemuxers == nil {
		out.CustomDemuxers = demux.NewTable()
	}
	if out.FallbackFontPaths == nil {
		out.FallbackFontPaths = []string{}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path, creating parent directories. The
// file is replaced atomically.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("could not create temporary config file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("could not replace config file: %w", err)
	}
	return nil
}

// Root returns the music folder, or "" when none is configured.
func (c *Config) Root() string {
	if c.MusicFolder == nil {
		return ""
	}
	return *c.MusicFolder
}

// SetRoot sets the music folder; an empty path clears it.
func (c *Config) SetRoot(path string) {
	if path == "" {
		c.MusicFolder = nil
		return
	}
	c.MusicFolder = &path
}

// PlaylistOptions returns the build options derived from the configuration.
func (c *Config) PlaylistOptions() playlist.Options {
	return playlist.Options{
		Root:           c.Root(),
		FollowSymlinks: c.FollowSymlinks,
		SkipHidden:     c.SkipHidden,
	}
}
