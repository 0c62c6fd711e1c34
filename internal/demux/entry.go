package demux

import (
	"encoding/json"

	"github.com/google/uuid"
)

// UnnamedLabel is displayed for entries without a name.
const UnnamedLabel = "<unnamed demuxer>"

// EntryID identifies an entry for the lifetime of the process. It is not
// persisted; entries get fresh IDs whenever they are loaded.
type EntryID string

// NewEntryID generates a random identifier.
func NewEntryID() EntryID {
	return EntryID(uuid.NewString())
}

// Entry is a custom demuxer: a set of predicates selecting files and the
// reader command that plays them.
type Entry struct {
	ID         EntryID
	Name       string
	Predicates []Predicate
	ReaderCmd  Command
	// ExtraArgs are passed to the player in addition to its defaults.
	ExtraArgs []string
}

// NewEntry returns a default-initialized entry with a fresh ID.
func NewEntry() Entry {
	return Entry{ID: NewEntryID()}
}

// DisplayName returns the name, or UnnamedLabel when it is empty.
func (e Entry) DisplayName() string {
	if e.Name == "" {
		return UnnamedLabel
	}
	return e.Name
}

// Matches reports whether any predicate matches path. An entry without
// predicates matches nothing.
func (e Entry) Matches(path string) bool {
	return MatchesAny(e.Predicates, path)
}

// Clone returns a deep copy that keeps the same ID.
func (e Entry) Clone() Entry {
	out := e
	out.ReaderCmd = e.ReaderCmd.Clone()
	if e.Predicates != nil {
		out.Predicates = append([]Predicate(nil), e.Predicates...)
	}
	if e.ExtraArgs != nil {
		out.ExtraArgs = append([]string(nil), e.ExtraArgs...)
	}
	return out
}

type entryWire struct {
	Predicates   []Predicate `json:"predicates"`
	ReaderCmd    Command     `json:"reader_cmd"`
	ExtraMpvArgs []string    `json:"extra_mpv_args"`
	Name         string      `json:"name"`
}

// MarshalJSON writes the persisted shape. The ID is not included.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := entryWire{
		Predicates:   e.Predicates,
		ReaderCmd:    e.ReaderCmd,
		ExtraMpvArgs: e.ExtraArgs,
		Name:         e.Name,
	}
	if w.Predicates == nil {
		w.Predicates = []Predicate{}
	}
	if w.ExtraMpvArgs == nil {
		w.ExtraMpvArgs = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the persisted shape and assigns a fresh ID.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Entry{
		ID:         NewEntryID(),
		Name:       w.Name,
		Predicates: w.Predicates,
		ReaderCmd:  w.ReaderCmd,
		ExtraArgs:  w.ExtraMpvArgs,
	}
	return nil
}
