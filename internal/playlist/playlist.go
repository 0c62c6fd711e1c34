package playlist

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ExcludedExtensions are never added to a playlist. The comparison is
// case sensitive.
var ExcludedExtensions = []string{"jpg", "png", "txt"}

// ErrSymlinkLoop is reported for a followed directory link that points back
// to one of its own ancestors.
var ErrSymlinkLoop = errors.New("symlink loop")

// Item is a playable file, relative to the playlist root.
type Item struct {
	Path string `json:"path"`
}

// Observer receives entries that were skipped because of an error. Skips
// never abort a build.
type Observer interface {
	SkippedEntry(path string, err error)
}

// Options controls a build.
type Options struct {
	// Root is the directory to scan. An empty Root yields an empty playlist.
	Root string
	// FollowSymlinks makes the walk descend into linked directories and
	// include linked files.
	FollowSymlinks bool
	// SkipHidden prunes every entry whose name starts with a dot, along with
	// its whole subtree.
	SkipHidden bool
	// Observer is optional.
	Observer Observer
}

// Stats describes the outcome of a build.
type Stats struct {
	Items    int           `json:"items"`
	Excluded int           `json:"excluded"`
	Hidden   int           `json:"hidden"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Playlist is a sorted sequence of items. It is rebuilt from scratch on
// every scan and is not safe for concurrent mutation.
type Playlist struct {
	items []Item
}

// Build scans opts.Root and returns a new playlist.
func Build(opts Options) *Playlist {
	p := &Playlist{}
	p.Rebuild(opts)
	return p
}

// Rebuild clears the playlist and repopulates it from opts.Root.
func (p *Playlist) Rebuild(opts Options) Stats {
	start := time.Now()
	p.items = p.items[:0]

	if opts.Root == "" {
		return Stats{Duration: time.Since(start)}
	}

	w := &walker{opts: opts, visited: make(map[string]bool)}
	if opts.FollowSymlinks {
		if real, err := filepath.EvalSymlinks(opts.Root); err == nil {
			w.visited[real] = true
		}
	}
	w.walk(opts.Root, "")

	p.items = w.items
	p.Sort()

	w.stats.Items = len(p.items)
	w.stats.Duration = time.Since(start)
	return w.stats
}

// Sort orders the items by relative path, comparing path components
// byte-wise.
func (p *Playlist) Sort() {
	slices.SortFunc(p.items, func(a, b Item) int {
		return ComparePaths(a.Path, b.Path)
	})
}

// Get returns the item at index i.
func (p *Playlist) Get(i int) (Item, bool) {
	if i < 0 || i >= len(p.items) {
		return Item{}, false
	}
	return p.items[i], true
}

// Len returns the number of items.
func (p *Playlist) Len() int {
	return len(p.items)
}

// Items returns a copy of all items.
func (p *Playlist) Items() []Item {
	return slices.Clone(p.items)
}

// All iterates over the items with their indices.
func (p *Playlist) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i, item := range p.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// ComparePaths orders two relative paths component by component, so that
// "a/b" sorts before "a-c".
func ComparePaths(a, b string) int {
	return slices.Compare(
		strings.Split(filepath.ToSlash(a), "/"),
		strings.Split(filepath.ToSlash(b), "/"),
	)
}

type walker struct {
	opts    Options
	items   []Item
	stats   Stats
	visited map[string]bool // real paths of the directories on the current branch
}

func (w *walker) skip(path string, err error) {
	w.stats.Skipped++
	if w.opts.Observer != nil {
		w.opts.Observer.SkippedEntry(path, err)
	}
}

func (w *walker) walk(dir, rel string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.skip(dir, err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if w.opts.SkipHidden && strings.HasPrefix(name, ".") {
			w.stats.Hidden++
			continue
		}

		full := filepath.Join(dir, name)
		entryRel := name
		if rel != "" {
			entryRel = filepath.Join(rel, name)
		}

		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				continue
			}
			info, err := os.Stat(full)
			if err != nil {
				w.skip(full, err)
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			w.walkDir(full, entryRel)
		case mode.IsRegular():
			if isExcluded(name) {
				w.stats.Excluded++
				continue
			}
			w.items = append(w.items, Item{Path: entryRel})
		}
	}
}

func (w *walker) walkDir(full, rel string) {
	if !w.opts.FollowSymlinks {
		w.walk(full, rel)
		return
	}

	real, err := filepath.EvalSymlinks(full)
	if err != nil {
		w.skip(full, err)
		return
	}
	if w.visited[real] {
		w.skip(full, fmt.Errorf("%s: %w", real, ErrSymlinkLoop))
		return
	}
	w.visited[real] = true
	w.walk(full, rel)
	delete(w.visited, real)
}

func isExcluded(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return false
	}
	return slices.Contains(ExcludedExtensions, name[i+1:])
}
