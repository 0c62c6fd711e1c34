package demux

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PredicateKind enumerates the supported file matching tests.
type PredicateKind int

const (
	// PredicateBeginsWith matches file names starting with a fragment.
	PredicateBeginsWith PredicateKind = iota
	// PredicateHasExts matches file names by extension.
	PredicateHasExts
)

// PredicateKinds lists every kind, in display order.
var PredicateKinds = []PredicateKind{PredicateBeginsWith, PredicateHasExts}

// Label is the short human readable name of the kind.
func (k PredicateKind) Label() string {
	switch k {
	case PredicateBeginsWith:
		return "Begins with"
	case PredicateHasExts:
		return "Has extension(s)"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Description explains how the kind's value is written.
func (k PredicateKind) Description() string {
	switch k {
	case PredicateBeginsWith:
		return "Begins with a string (e.g. `mdat.`) for TFMX files"
	case PredicateHasExts:
		return "Space separated list of file extensions (e.g. `mod xm it`) for module files"
	default:
		return ""
	}
}

// HasExts is the configuration of an extension predicate.
type HasExts struct {
	// ExtList is a space separated list of extensions without dots.
	ExtList string `json:"ext_list"`
	// CaseSensitive selects exact comparison instead of ASCII case folding.
	CaseSensitive bool `json:"case_sensitive"`
}

// Predicate is a single test over a file path. Only the fields belonging to
// Kind are meaningful.
type Predicate struct {
	Kind     PredicateKind
	Fragment string
	Exts     HasExts
}

// BeginsWith returns a predicate matching file names that start with fragment.
func BeginsWith(fragment string) Predicate {
	return Predicate{Kind: PredicateBeginsWith, Fragment: fragment}
}

// HasExtensions returns a predicate matching any of the space separated
// extensions in extList.
func HasExtensions(extList string, caseSensitive bool) Predicate {
	return Predicate{Kind: PredicateHasExts, Exts: HasExts{ExtList: extList, CaseSensitive: caseSensitive}}
}

// Matches reports whether the predicate applies to path.
func (p Predicate) Matches(path string) bool {
	switch p.Kind {
	case PredicateBeginsWith:
		return matchesBegin(p.Fragment, path)
	case PredicateHasExts:
		return matchesExts(p.Exts.ExtList, path, p.Exts.CaseSensitive)
	default:
		return false
	}
}

func matchesBegin(fragment, path string) bool {
	name, ok := fileName(path)
	if !ok || !utf8.ValidString(name) {
		return false
	}
	return strings.HasPrefix(name, fragment)
}

func matchesExts(extList, path string, caseSensitive bool) bool {
	ext, ok := extension(path)
	if !ok {
		return false
	}
	for _, candidate := range strings.Fields(extList) {
		if caseSensitive {
			if ext == candidate {
				return true
			}
		} else if equalFoldASCII(ext, candidate) {
			return true
		}
	}
	return false
}

// fileName returns the final path component, or false for paths such as
// "/" or "dir/.." that do not name a file.
func fileName(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", false
	}
	return name, true
}

// extension returns the text after the final dot of the file name. Names
// without a dot, or whose only dot is the leading one (".bashrc"), have no
// extension.
func extension(path string) (string, bool) {
	name, ok := fileName(path)
	if !ok {
		return "", false
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return "", false
	}
	return name[i+1:], true
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// MatchesAny reports whether at least one predicate matches path. An empty
// list never matches.
func MatchesAny(preds []Predicate, path string) bool {
	for _, p := range preds {
		if p.Matches(path) {
			return true
		}
	}
	return false
}

// MarshalJSON writes {"BeginsWith": "..."} or {"HasExts": {...}}.
func (p Predicate) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PredicateBeginsWith:
		return json.Marshal(map[string]string{"BeginsWith": p.Fragment})
	case PredicateHasExts:
		return json.Marshal(map[string]HasExts{"HasExts": p.Exts})
	default:
		return nil, fmt.Errorf("unknown predicate kind %d", p.Kind)
	}
}

// UnmarshalJSON accepts the current shape, the "HasExt" alias tag, and the
// legacy form where the extension list was stored as a bare string.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeVariant(data)
	if err != nil {
		return fmt.Errorf("predicate: %w", err)
	}

	switch tag {
	case "BeginsWith":
		var fragment string
		if err := json.Unmarshal(payload, &fragment); err != nil {
			return fmt.Errorf("predicate BeginsWith: %w", err)
		}
		*p = BeginsWith(fragment)
	case "HasExts", "HasExt":
		exts, err := decodeHasExts(payload)
		if err != nil {
			return fmt.Errorf("predicate %s: %w", tag, err)
		}
		*p = Predicate{Kind: PredicateHasExts, Exts: exts}
	default:
		return fmt.Errorf("unknown predicate variant %q", tag)
	}
	return nil
}

func decodeHasExts(payload json.RawMessage) (HasExts, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '"' {
		var extList string
		if err := json.Unmarshal(payload, &extList); err != nil {
			return HasExts{}, err
		}
		return HasExts{ExtList: extList, CaseSensitive: false}, nil
	}

	var exts HasExts
	if err := json.Unmarshal(payload, &exts); err != nil {
		return HasExts{}, err
	}
	return exts, nil
}
