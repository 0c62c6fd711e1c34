package demux

import (
	"encoding/json"
	"reflect"
	"testing"
)

func namedEntry(name string, preds ...Predicate) Entry {
	e := NewEntry()
	e.Name = name
	e.Predicates = preds
	return e
}

func names(t *Table) []string {
	out := make([]string, 0, t.Len())
	for _, e := range t.Entries() {
		out = append(out, e.Name)
	}
	return out
}

func TestTableResolvePriority(t *testing.T) {
	table := NewTable(
		namedEntry("A", HasExtensions("mid", false)),
		namedEntry("B", BeginsWith("")),
	)

	got, ok := table.Resolve("x.mid")
	if !ok || got.Name != "A" {
		t.Errorf("Expected A, got %q (ok=%v)", got.Name, ok)
	}

	got, ok = table.Resolve("x.flac")
	if !ok || got.Name != "B" {
		t.Errorf("Expected B, got %q (ok=%v)", got.Name, ok)
	}

	table.SwapPriority(0, 1)
	got, _ = table.Resolve("x.mid")
	if got.Name != "B" {
		t.Errorf("Expected B after swap, got %q", got.Name)
	}
}

func TestTableResolveNoMatch(t *testing.T) {
	table := NewTable(namedEntry("empty"), namedEntry("mods", HasExtensions("mod", false)))

	if _, ok := table.Resolve("song.flac"); ok {
		t.Error("Expected no entry to match")
	}
	if _, ok := NewTable().Resolve("song.flac"); ok {
		t.Error("Expected empty table to match nothing")
	}
}

func TestTableEntryWithoutPredicatesNeverMatches(t *testing.T) {
	table := NewTable()
	table.Add()

	if _, ok := table.Resolve("anything.mp3"); ok {
		t.Error("Expected default entry not to act as a wildcard")
	}
}

func TestTableAdd(t *testing.T) {
	table := NewTable(namedEntry("A"))
	idx := table.Add()

	if idx != 1 {
		t.Errorf("Expected index 1, got %d", idx)
	}
	e, ok := table.At(idx)
	if !ok {
		t.Fatal("Expected entry at new index")
	}
	if e.Name != "" || len(e.Predicates) != 0 || !e.ReaderCmd.IsEmpty() || len(e.ExtraArgs) != 0 {
		t.Errorf("Expected default entry, got %#v", e)
	}
	if e.ID == "" {
		t.Error("Expected new entry to have an ID")
	}
	if e.DisplayName() != UnnamedLabel {
		t.Errorf("Expected %q, got %q", UnnamedLabel, e.DisplayName())
	}
}

func TestTableRemoveShiftsIndices(t *testing.T) {
	table := NewTable(namedEntry("A"), namedEntry("B"), namedEntry("C"))
	formerOne, _ := table.At(1)

	if !table.Remove(0) {
		t.Fatal("Expected Remove(0) to succeed")
	}
	now, _ := table.At(0)
	if now.ID != formerOne.ID {
		t.Errorf("Expected former entry 1 at index 0, got %q", now.Name)
	}
	if !reflect.DeepEqual(names(table), []string{"B", "C"}) {
		t.Errorf("Unexpected order %v", names(table))
	}

	if table.Remove(5) || table.Remove(-1) {
		t.Error("Expected out of range Remove to fail")
	}
}

func TestTableRemoveIDKeepsSelectionStable(t *testing.T) {
	table := NewTable(namedEntry("A"), namedEntry("B"), namedEntry("C"))
	selected, _ := table.At(2)

	first, _ := table.At(0)
	table.RemoveID(first.ID)

	got, ok := table.Get(selected.ID)
	if !ok || got.Name != "C" {
		t.Errorf("Expected selection to still resolve to C, got %q (ok=%v)", got.Name, ok)
	}
	if table.IndexOf(selected.ID) != 1 {
		t.Errorf("Expected C at index 1, got %d", table.IndexOf(selected.ID))
	}
	if table.RemoveID(first.ID) {
		t.Error("Expected removing a missing ID to fail")
	}
}

func TestTableClone(t *testing.T) {
	src := namedEntry("A", HasExtensions("mod", false))
	src.ReaderCmd = Command{Name: "openmpt123", Args: []Arg{SongPath()}}
	src.ExtraArgs = []string{"--demuxer=rawaudio"}
	table := NewTable(namedEntry("first"), src)

	cloneID, ok := table.Clone(1)
	if !ok {
		t.Fatal("Expected Clone to succeed")
	}
	if !reflect.DeepEqual(names(table), []string{"first", "A", "A"}) {
		t.Fatalf("Unexpected order %v", names(table))
	}

	clone, _ := table.At(1)
	orig, _ := table.At(2)
	if clone.ID != cloneID || orig.ID != src.ID {
		t.Error("Expected clone at the source index and the original shifted by one")
	}
	if clone.ID == orig.ID {
		t.Error("Expected clone to get a new ID")
	}

	table.Update(cloneID, func(e *Entry) {
		e.Predicates[0] = BeginsWith("x")
		e.ExtraArgs[0] = "changed"
		e.ReaderCmd.Args[0] = Custom("changed")
	})
	orig, _ = table.At(2)
	if orig.Predicates[0] != HasExtensions("mod", false) || orig.ExtraArgs[0] != "--demuxer=rawaudio" ||
		orig.ReaderCmd.Args[0].Kind != ArgSongPath {
		t.Errorf("Editing the clone changed the original: %#v", orig)
	}

	if _, ok := table.Clone(3); ok {
		t.Error("Expected out of range Clone to fail")
	}
}

func TestTableSwapPriorityBounds(t *testing.T) {
	table := NewTable(namedEntry("A"), namedEntry("B"), namedEntry("C"))

	table.SwapPriority(-1, 0)
	table.SwapPriority(2, 3)
	table.SwapPriority(0, 100)
	if !reflect.DeepEqual(names(table), []string{"A", "B", "C"}) {
		t.Errorf("Expected out of range swaps to be no-ops, got %v", names(table))
	}

	table.SwapPriority(0, 2)
	if !reflect.DeepEqual(names(table), []string{"C", "B", "A"}) {
		t.Errorf("Unexpected order after swap %v", names(table))
	}
}

func TestTableMoveUpDown(t *testing.T) {
	a, b, c := namedEntry("A"), namedEntry("B"), namedEntry("C")
	table := NewTable(a, b, c)

	table.MoveUp(a.ID)
	table.MoveDown(c.ID)
	if !reflect.DeepEqual(names(table), []string{"A", "B", "C"}) {
		t.Errorf("Expected moves at the edges to be no-ops, got %v", names(table))
	}

	table.MoveUp(c.ID)
	if !reflect.DeepEqual(names(table), []string{"A", "C", "B"}) {
		t.Errorf("Unexpected order after MoveUp %v", names(table))
	}
	table.MoveDown(a.ID)
	if !reflect.DeepEqual(names(table), []string{"C", "A", "B"}) {
		t.Errorf("Unexpected order after MoveDown %v", names(table))
	}

	table.MoveUp("missing")
	table.MoveDown("missing")
	if !reflect.DeepEqual(names(table), []string{"C", "A", "B"}) {
		t.Errorf("Expected unknown IDs to be ignored, got %v", names(table))
	}
}

func TestTableUpdateKeepsID(t *testing.T) {
	e := namedEntry("A")
	table := NewTable(e)

	ok := table.Update(e.ID, func(x *Entry) {
		x.Name = "renamed"
		x.ID = "hijacked"
	})
	if !ok {
		t.Fatal("Expected Update to succeed")
	}
	got, ok := table.Get(e.ID)
	if !ok || got.Name != "renamed" {
		t.Errorf("Expected renamed entry under original ID, got %#v", got)
	}
	if table.Update("missing", func(*Entry) {}) {
		t.Error("Expected Update of missing ID to fail")
	}
}

func TestTableJSON(t *testing.T) {
	input := `[
		{
			"predicates": [{"HasExt": "mod xm"}, {"BeginsWith": "mdat."}],
			"reader_cmd": {"name": "uade123", "args": [{"Custom": "-c"}, "SongPath"]},
			"extra_mpv_args": ["--demuxer=rawaudio", "--demuxer-rawaudio-rate=44100"]
		},
		{
			"predicates": [],
			"reader_cmd": {"name": "", "args": []},
			"extra_mpv_args": [],
			"name": "empty"
		}
	]`

	var table Table
	if err := json.Unmarshal([]byte(input), &table); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", table.Len())
	}

	first, _ := table.At(0)
	if first.Name != "" {
		t.Errorf("Expected missing name to default to empty, got %q", first.Name)
	}
	if first.Predicates[0] != HasExtensions("mod xm", false) {
		t.Errorf("Expected legacy predicate to migrate, got %#v", first.Predicates[0])
	}
	if first.ID == "" {
		t.Error("Expected loaded entries to get IDs")
	}
	if got := first.ReaderCmd.String(); got != "uade123 -c {} " {
		t.Errorf("Unexpected reader command %q", got)
	}

	out, err := json.Marshal(&table)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var again Table
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("Unmarshal of re-encoded table returned error: %v", err)
	}
	if !reflect.DeepEqual(names(&again), names(&table)) {
		t.Errorf("Names changed across round trip: %v vs %v", names(&again), names(&table))
	}
	second, _ := again.At(0)
	if second.Predicates[0] != HasExtensions("mod xm", false) {
		t.Errorf("Expected migrated predicate to persist in the new shape, got %#v", second.Predicates[0])
	}
}

func TestTableJSONErrors(t *testing.T) {
	inputs := []string{
		`[{"predicates": [{"Glob": "*.mod"}], "reader_cmd": {"name": "x", "args": []}, "extra_mpv_args": []}]`,
		`[{"predicates": [], "reader_cmd": {"name": "x", "args": ["Path"]}, "extra_mpv_args": []}]`,
		`{"not": "an array"}`,
	}

	for _, in := range inputs {
		var table Table
		if err := json.Unmarshal([]byte(in), &table); err == nil {
			t.Errorf("Expected error decoding %s", in)
		}
	}
}

func TestEmptyTableMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(NewTable())
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected [], got %s", data)
	}
}
