package demux

import (
	"fmt"
	"strings"
)

// Field names a text-edited field of an entry.
type Field int

const (
	// FieldCommand is the reader command template.
	FieldCommand Field = iota
	// FieldExtraArgs is the list of extra player arguments.
	FieldExtraArgs
)

func (f Field) String() string {
	switch f {
	case FieldCommand:
		return "command"
	case FieldExtraArgs:
		return "extra_args"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseField converts the String form back to a Field.
func ParseField(s string) (Field, error) {
	switch s {
	case "command":
		return FieldCommand, nil
	case "extra_args":
		return FieldExtraArgs, nil
	default:
		return 0, fmt.Errorf("unknown field %q", s)
	}
}

// EditTarget identifies the field being edited.
type EditTarget struct {
	Entry EntryID
	Field Field
}

// AbandonPolicy decides what happens to an in-flight edit when another one
// starts.
type AbandonPolicy int

const (
	// Discard drops the previous buffer without touching the entry.
	Discard AbandonPolicy = iota
	// Commit ends the previous edit as if the field had lost focus.
	Commit
)

// View renders the committed value of a field as editable text.
func View(e Entry, f Field) string {
	switch f {
	case FieldCommand:
		return e.ReaderCmd.String()
	case FieldExtraArgs:
		return strings.Join(e.ExtraArgs, " ")
	default:
		return ""
	}
}

// Editor is the single active edit slot shared by every field of a table.
// While a field is being edited its text lives in the buffer and the entry
// is left untouched until End.
type Editor struct {
	active *EditTarget
	buffer string
	errMsg string
}

// Active returns the field currently being edited.
func (ed *Editor) Active() (EditTarget, bool) {
	if ed.active == nil {
		return EditTarget{}, false
	}
	return *ed.active, true
}

// Buffer returns the in-flight text.
func (ed *Editor) Buffer() string {
	return ed.buffer
}

// Err returns the message of the last failed command commit, or "".
func (ed *Editor) Err() string {
	return ed.errMsg
}

// Text returns what a field should display: the buffer while it is being
// edited, the committed value otherwise.
func (ed *Editor) Text(t *Table, target EditTarget) string {
	if ed.active != nil && *ed.active == target {
		return ed.buffer
	}
	e, ok := t.Get(target.Entry)
	if !ok {
		return ""
	}
	return View(e, target.Field)
}

// Begin starts editing target, seeding the buffer from the committed value.
// An edit already in progress on another field is resolved first according
// to prev. Beginning the edit that is already active keeps its buffer.
func (ed *Editor) Begin(t *Table, target EditTarget, prev AbandonPolicy) (string, error) {
	if ed.active != nil {
		if *ed.active == target {
			return ed.buffer, nil
		}
		if prev == Commit {
			// A failed commit is recorded in errMsg; the new edit still starts.
			_ = ed.End(t)
		} else {
			ed.Cancel()
		}
	}

	e, ok := t.Get(target.Entry)
	if !ok {
		return "", fmt.Errorf("entry %s not found", target.Entry)
	}
	ed.active = &target
	ed.buffer = View(e, target.Field)
	return ed.buffer, nil
}

// SetBuffer replaces the in-flight text. It reports false when nothing is
// being edited.
func (ed *Editor) SetBuffer(text string) bool {
	if ed.active == nil {
		return false
	}
	ed.buffer = text
	return true
}

// Cancel abandons the active edit without committing.
func (ed *Editor) Cancel() {
	ed.active = nil
	ed.buffer = ""
}

// End finishes the active edit. The command field is re-parsed and only
// committed on success; a parse failure keeps the previous command, records
// the error and is returned. Extra arguments always commit. The buffer is
// cleared in every case, and an edit whose entry no longer exists is
// dropped.
func (ed *Editor) End(t *Table) error {
	if ed.active == nil {
		return nil
	}
	target := *ed.active
	buf := ed.buffer
	ed.Cancel()

	switch target.Field {
	case FieldCommand:
		cmd, err := ParseCommand(buf)
		if err != nil {
			if t.IndexOf(target.Entry) >= 0 {
				ed.errMsg = err.Error()
			}
			return err
		}
		if t.Update(target.Entry, func(e *Entry) { e.ReaderCmd = cmd }) {
			ed.errMsg = ""
		}
	case FieldExtraArgs:
		args := strings.Fields(buf)
		t.Update(target.Entry, func(e *Entry) { e.ExtraArgs = args })
	}
	return nil
}
