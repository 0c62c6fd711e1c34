package launcher

import (
	"path/filepath"
	"strconv"
	"strings"

	"media-router/internal/demux"
	"media-router/internal/metrics"
	"media-router/internal/playlist"
)

// StdinArg tells the player to read the stream from standard input.
const StdinArg = "-"

// Player is the program that plays every item, with arguments passed on
// every invocation.
type Player struct {
	Program string
	Args    []string
}

// DefaultPlayer returns mpv without extra arguments.
func DefaultPlayer() Player {
	return Player{Program: "mpv"}
}

// Preferences are the persisted playback settings turned into player flags.
type Preferences struct {
	Volume uint8
	Speed  float64
	Video  bool
}

// Flags returns the player flags for p.
func (p Preferences) Flags() []string {
	flags := []string{
		"--volume=" + strconv.Itoa(int(p.Volume)),
		"--speed=" + strconv.FormatFloat(p.Speed, 'f', -1, 64),
	}
	if !p.Video {
		flags = append(flags, "--no-video")
	}
	return flags
}

// Stage is one process of a plan.
type Stage struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
}

// String renders the stage as a command line, quoting arguments that
// contain whitespace or are empty.
func (s Stage) String() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, quoteArg(s.Program))
	for _, a := range s.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'") {
		return strconv.Quote(s)
	}
	return s
}

// Plan describes how an item is played. When a demuxer rule matched,
// Reader is set and its standard output feeds the player; otherwise the
// player opens the file itself.
type Plan struct {
	Item   string        `json:"item"`
	Path   string        `json:"path"`
	Rule   string        `json:"rule,omitempty"`
	RuleID demux.EntryID `json:"ruleId,omitempty"`
	Reader *Stage        `json:"reader,omitempty"`
	Player Stage         `json:"player"`
}

// Routed reports whether a demuxer rule handles the item.
func (p Plan) Routed() bool {
	return p.Reader != nil
}

// Outcome is "rule" for routed plans and "default" otherwise.
func (p Plan) Outcome() string {
	if p.Routed() {
		return "rule"
	}
	return "default"
}

// String renders the plan as a shell pipeline.
func (p Plan) String() string {
	if p.Reader == nil {
		return p.Player.String()
	}
	return p.Reader.String() + " | " + p.Player.String()
}

// NewPlan resolves item against table. The song path substituted into the
// reader command is item joined to root.
func NewPlan(table *demux.Table, root string, item playlist.Item, player Player, prefs Preferences) Plan {
	path := item.Path
	if root != "" {
		path = filepath.Join(root, item.Path)
	}

	playerArgs := append([]string{}, player.Args...)
	playerArgs = append(playerArgs, prefs.Flags()...)

	plan := Plan{
		Item: item.Path,
		Path: path,
	}

	entry, ok := table.Resolve(path)
	if !ok {
		plan.Player = Stage{Program: player.Program, Args: append(playerArgs, path)}
		metrics.ResolutionsTotal.WithLabelValues(plan.Outcome()).Inc()
		return plan
	}

	name, args := entry.ReaderCmd.Materialize(path)
	if args == nil {
		args = []string{}
	}
	plan.Rule = entry.DisplayName()
	plan.RuleID = entry.ID
	plan.Reader = &Stage{Program: name, Args: args}
	playerArgs = append(playerArgs, entry.ExtraArgs...)
	plan.Player = Stage{Program: player.Program, Args: append(playerArgs, StdinArg)}

	metrics.ResolutionsTotal.WithLabelValues(plan.Outcome()).Inc()
	return plan
}
