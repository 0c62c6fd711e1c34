package demux

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs []Arg
	}{
		{
			name:     "Program only",
			input:    "mpv",
			wantName: "mpv",
		},
		{
			name:     "Placeholder and literals",
			input:    "my-cmd --input {}",
			wantName: "my-cmd",
			wantArgs: []Arg{Custom("--input"), SongPath()},
		},
		{
			name:     "Runs of whitespace collapse",
			input:    "  uade123 \t -c\n{}   ",
			wantName: "uade123",
			wantArgs: []Arg{Custom("-c"), SongPath()},
		},
		{
			name:     "Braces inside a token stay literal",
			input:    "cmd --file={} {}x",
			wantName: "cmd",
			wantArgs: []Arg{Custom("--file={}"), Custom("{}x")},
		},
		{
			name:     "Quotes are not interpreted",
			input:    `cmd "a b"`,
			wantName: "cmd",
			wantArgs: []Arg{Custom(`"a`), Custom(`b"`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.input)
			if err != nil {
				t.Fatalf("ParseCommand(%q) returned error: %v", tt.input, err)
			}
			if cmd.Name != tt.wantName {
				t.Errorf("Expected name %q, got %q", tt.wantName, cmd.Name)
			}
			if !reflect.DeepEqual(cmd.Args, tt.wantArgs) {
				t.Errorf("Expected args %#v, got %#v", tt.wantArgs, cmd.Args)
			}
		})
	}
}

func TestParseCommandEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCommand(input)
			if err == nil {
				t.Fatal("Expected error for empty input")
			}

			var perr *CommandParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *CommandParseError, got %T", err)
			}
			if perr.Kind().ExpectedButEnd != "command" {
				t.Errorf("Expected ExpectedButEnd=command, got %q", perr.Kind().ExpectedButEnd)
			}
			want := "parse error: Expected command, but reached end."
			if err.Error() != want {
				t.Errorf("Expected message %q, got %q", want, err.Error())
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Name: "my-cmd", Args: []Arg{Custom("--input"), SongPath()}}
	want := "my-cmd --input {} "
	if got := cmd.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	if got := (Command{}).String(); got != " " {
		t.Errorf("Empty command String() = %q, want %q", got, " ")
	}
}

func TestCommandRoundTrip(t *testing.T) {
	commands := []Command{
		{Name: "mpv"},
		{Name: "uade123", Args: []Arg{Custom("-c"), SongPath()}},
		{Name: "x", Args: []Arg{SongPath(), SongPath(), Custom("--"), Custom("y")}},
	}

	for _, c := range commands {
		t.Run(c.Name, func(t *testing.T) {
			parsed, err := ParseCommand(c.String())
			if err != nil {
				t.Fatalf("ParseCommand(%q) returned error: %v", c.String(), err)
			}
			if parsed.Name != c.Name {
				t.Errorf("Expected name %q, got %q", c.Name, parsed.Name)
			}
			if !reflect.DeepEqual(parsed.Args, c.Args) {
				t.Errorf("Expected args %#v, got %#v", c.Args, parsed.Args)
			}
			if parsed.String() != c.String() {
				t.Errorf("Serialized form changed: %q -> %q", c.String(), parsed.String())
			}
		})
	}
}

func TestCommandMaterialize(t *testing.T) {
	cmd, err := ParseCommand("uade123 -c {} --also {}")
	if err != nil {
		t.Fatalf("ParseCommand returned error: %v", err)
	}

	name, args := cmd.Materialize("/music/mdat.song 1")
	if name != "uade123" {
		t.Errorf("Expected name uade123, got %s", name)
	}
	want := []string{"-c", "/music/mdat.song 1", "--also", "/music/mdat.song 1"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Expected args %v, got %v", want, args)
	}
}

func TestCommandCloneIsDeep(t *testing.T) {
	orig := Command{Name: "a", Args: []Arg{Custom("b")}}
	dup := orig.Clone()
	dup.Args[0] = SongPath()

	if orig.Args[0].Kind != ArgCustom {
		t.Error("Modifying the clone changed the original")
	}
}

func TestCommandJSON(t *testing.T) {
	cmd := Command{Name: "uade123", Args: []Arg{Custom("-c"), SongPath()}}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	want := `{"name":"uade123","args":[{"Custom":"-c"},"SongPath"]}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	var back Command
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !reflect.DeepEqual(back, cmd) {
		t.Errorf("Expected %#v, got %#v", cmd, back)
	}

	empty, err := json.Marshal(Command{})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(empty) != `{"name":"","args":[]}` {
		t.Errorf("Unexpected empty command encoding: %s", empty)
	}
}

func TestArgUnmarshalRejectsUnknownVariants(t *testing.T) {
	inputs := []string{
		`"Path"`,
		`{"Literal":"x"}`,
		`{"Custom":"x","SongPath":null}`,
		`{"Custom":1}`,
		`42`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			var a Arg
			if err := json.Unmarshal([]byte(in), &a); err == nil {
				t.Errorf("Expected error decoding %s", in)
			}
		})
	}
}
