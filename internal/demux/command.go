package demux

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SongPathToken is the literal token that marks where the song path goes.
const SongPathToken = "{}"

// ArgKind identifies the kind of a command argument.
type ArgKind int

const (
	// ArgCustom is a literal argument passed through verbatim.
	ArgCustom ArgKind = iota
	// ArgSongPath is replaced by the path of the song being played.
	ArgSongPath
)

// Arg is a single argument of a Command.
type Arg struct {
	Kind  ArgKind
	Value string // only meaningful for ArgCustom
}

// Custom returns a literal argument.
func Custom(value string) Arg {
	return Arg{Kind: ArgCustom, Value: value}
}

// SongPath returns a song path placeholder argument.
func SongPath() Arg {
	return Arg{Kind: ArgSongPath}
}

// String renders the argument the way it is typed by the user.
func (a Arg) String() string {
	if a.Kind == ArgSongPath {
		return SongPathToken
	}
	return a.Value
}

// MarshalJSON encodes the argument as {"Custom": "..."} or "SongPath".
func (a Arg) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ArgSongPath:
		return json.Marshal("SongPath")
	case ArgCustom:
		return json.Marshal(map[string]string{"Custom": a.Value})
	default:
		return nil, fmt.Errorf("unknown argument kind %d", a.Kind)
	}
}

// UnmarshalJSON decodes either of the shapes produced by MarshalJSON.
func (a *Arg) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "SongPath" {
			return fmt.Errorf("unknown argument variant %q", tag)
		}
		*a = SongPath()
		return nil
	}

	tag, payload, err := decodeVariant(data)
	if err != nil {
		return fmt.Errorf("argument: %w", err)
	}
	if tag != "Custom" {
		return fmt.Errorf("unknown argument variant %q", tag)
	}
	var value string
	if err := json.Unmarshal(payload, &value); err != nil {
		return fmt.Errorf("argument Custom: %w", err)
	}
	*a = Custom(value)
	return nil
}

// Command is a parsed external program invocation. A zero Command is the
// empty command.
type Command struct {
	Name string `json:"name"`
	Args []Arg  `json:"args"`
}

// CommandParseError is returned by ParseCommand.
type CommandParseError struct {
	kind ParseErrorKind
}

// ParseErrorKind describes why parsing failed.
type ParseErrorKind struct {
	// ExpectedButEnd names the token that was expected when input ran out.
	ExpectedButEnd string
}

func (k ParseErrorKind) String() string {
	return fmt.Sprintf("Expected %s, but reached end.", k.ExpectedButEnd)
}

// Kind returns the failure kind.
func (e *CommandParseError) Kind() ParseErrorKind {
	return e.kind
}

func (e *CommandParseError) Error() string {
	return "parse error: " + e.kind.String()
}

// ParseCommand tokenizes text on runs of whitespace. The first token is the
// program name; "{}" tokens become song path placeholders. Quoting and
// escaping are not supported.
func ParseCommand(text string) (Command, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Command{}, &CommandParseError{kind: ParseErrorKind{ExpectedButEnd: "command"}}
	}

	cmd := Command{Name: tokens[0]}
	for _, tok := range tokens[1:] {
		if tok == SongPathToken {
			cmd.Args = append(cmd.Args, SongPath())
		} else {
			cmd.Args = append(cmd.Args, Custom(tok))
		}
	}
	return cmd, nil
}

// String serializes the command back to its editable single-line form:
// the name followed by a space, then every argument followed by a space.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	for _, arg := range c.Args {
		b.WriteString(arg.String())
		b.WriteByte(' ')
	}
	return b.String()
}

// IsEmpty reports whether the command has no program name.
func (c Command) IsEmpty() bool {
	return c.Name == ""
}

// Materialize returns the program name and argument vector with every song
// path placeholder replaced by path.
func (c Command) Materialize(path string) (string, []string) {
	args := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		if arg.Kind == ArgSongPath {
			args = append(args, path)
		} else {
			args = append(args, arg.Value)
		}
	}
	return c.Name, args
}

// Clone returns a deep copy.
func (c Command) Clone() Command {
	out := Command{Name: c.Name}
	if c.Args != nil {
		out.Args = append([]Arg(nil), c.Args...)
	}
	return out
}

// MarshalJSON always writes args as an array, never null.
func (c Command) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name string `json:"name"`
		Args []Arg  `json:"args"`
	}
	args := c.Args
	if args == nil {
		args = []Arg{}
	}
	return json.Marshal(wire{Name: c.Name, Args: args})
}

// decodeVariant splits an externally tagged object {"Tag": payload}.
func decodeVariant(data []byte) (string, json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, err
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("expected a single variant tag, got %d keys", len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	return "", nil, nil
}
