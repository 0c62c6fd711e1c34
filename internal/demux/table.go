package demux

import (
	"encoding/json"
)

// Table is an ordered list of entries. Order is priority: Resolve returns
// the first matching entry. A Table has a single writer and does no locking.
type Table struct {
	entries []Entry
}

// NewTable returns a table holding the given entries. Entries without an ID
// are assigned one.
func NewTable(entries ...Entry) *Table {
	t := &Table{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			e.ID = NewEntryID()
		}
		t.entries = append(t.entries, e)
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry at index i.
func (t *Table) At(i int) (Entry, bool) {
	if !t.inRange(i) {
		return Entry{}, false
	}
	return t.entries[i].Clone(), true
}

// Entries returns a deep copy of all entries in priority order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Clone()
	}
	return out
}

// IndexOf returns the current position of the entry with the given ID, or -1.
func (t *Table) IndexOf(id EntryID) int {
	for i, e := range t.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the entry with the given ID.
func (t *Table) Get(id EntryID) (Entry, bool) {
	return t.At(t.IndexOf(id))
}

// Resolve returns the first entry, in table order, with a predicate
// matching path. ok is false when no entry matches and the caller should
// fall back to the default player invocation.
func (t *Table) Resolve(path string) (entry Entry, ok bool) {
	for _, e := range t.entries {
		if e.Matches(path) {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

// Add appends a default-initialized entry and returns its index.
func (t *Table) Add() int {
	t.entries = append(t.entries, NewEntry())
	return len(t.entries) - 1
}

// Remove deletes the entry at index i. Later entries shift down by one.
func (t *Table) Remove(i int) bool {
	if !t.inRange(i) {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}

// RemoveID deletes the entry with the given ID.
func (t *Table) RemoveID(id EntryID) bool {
	return t.Remove(t.IndexOf(id))
}

// Clone inserts a deep copy of the entry at index i immediately before it,
// so the copy occupies i and the original moves to i+1. The copy gets a new
// ID.
func (t *Table) Clone(i int) (EntryID, bool) {
	if !t.inRange(i) {
		return "", false
	}
	dup := t.entries[i].Clone()
	dup.ID = NewEntryID()
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = dup
	return dup.ID, true
}

// CloneID clones the entry with the given ID.
func (t *Table) CloneID(id EntryID) (EntryID, bool) {
	return t.Clone(t.IndexOf(id))
}

// SwapPriority exchanges the entries at i and j. It is a no-op when either
// index is out of range.
func (t *Table) SwapPriority(i, j int) {
	if !t.inRange(i) || !t.inRange(j) {
		return
	}
	t.entries[i], t.entries[j] = t.entries[j], t.entries[i]
}

// MoveUp raises the priority of the entry with the given ID by one. The
// first entry stays where it is.
func (t *Table) MoveUp(id EntryID) {
	i := t.IndexOf(id)
	if i > 0 {
		t.SwapPriority(i, i-1)
	}
}

// MoveDown lowers the priority of the entry with the given ID by one. The
// last entry stays where it is.
func (t *Table) MoveDown(id EntryID) {
	i := t.IndexOf(id)
	if i >= 0 {
		t.SwapPriority(i, i+1)
	}
}

// Update applies fn to the entry with the given ID. The ID is preserved
// even if fn changes it.
func (t *Table) Update(id EntryID, fn func(*Entry)) bool {
	i := t.IndexOf(id)
	if i < 0 {
		return false
	}
	fn(&t.entries[i])
	t.entries[i].ID = id
	return true
}

func (t *Table) inRange(i int) bool {
	return i >= 0 && i < len(t.entries)
}

// MarshalJSON writes the entries as a JSON array.
func (t *Table) MarshalJSON() ([]byte, error) {
	if t == nil || t.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.entries)
}

// UnmarshalJSON replaces the entries with the decoded array. A null value
// yields an empty table.
func (t *Table) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	t.entries = entries
	if t.entries == nil {
		t.entries = []Entry{}
	}
	return nil
}
