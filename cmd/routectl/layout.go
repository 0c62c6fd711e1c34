package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"media-router/internal/demux"
)

type layout int

const (
	// layoutWide prints one aligned row per entry.
	layoutWide layout = iota
	// layoutCompact prints a short block per entry for narrow terminals.
	layoutCompact
)

// wideMinColumns is the terminal width below which the compact layout is used.
const wideMinColumns = 100

// detectLayout picks the compact layout for terminals narrower than
// wideMinColumns. Pipes and files always get the wide layout.
func detectLayout(w io.Writer) layout {
	f, ok := w.(*os.File)
	if !ok {
		return layoutWide
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return layoutWide
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width >= wideMinColumns {
		return layoutWide
	}
	return layoutCompact
}

func writeEntries(w io.Writer, l layout, entries []demux.Entry) error {
	if l == layoutCompact {
		for i, e := range entries {
			fmt.Fprintf(w, "[%d] %s\n", i, e.DisplayName())
			fmt.Fprintf(w, "    match:  %s\n", describePredicates(e.Predicates))
			fmt.Fprintf(w, "    reader: %s\n", describeCommand(e.ReaderCmd))
			if len(e.ExtraArgs) > 0 {
				fmt.Fprintf(w, "    args:   %s\n", strings.Join(e.ExtraArgs, " "))
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tMATCH\tREADER\tEXTRA ARGS")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			i, e.DisplayName(), describePredicates(e.Predicates), describeCommand(e.ReaderCmd), strings.Join(e.ExtraArgs, " "))
	}
	return tw.Flush()
}

type scanRow struct {
	index int
	path  string
	rule  string
}

func writeScan(w io.Writer, rows []scanRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		rule := r.rule
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.index, r.path, rule)
	}
	_ = tw.Flush()
}

func describePredicates(preds []demux.Predicate) string {
	if len(preds) == 0 {
		return "(nothing)"
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		switch p.Kind {
		case demux.PredicateBeginsWith:
			parts = append(parts, fmt.Sprintf("begins with %q", p.Fragment))
		case demux.PredicateHasExts:
			desc := fmt.Sprintf("ext %q", p.Exts.ExtList)
			if p.Exts.CaseSensitive {
				desc += " (case sensitive)"
			}
			parts = append(parts, desc)
		default:
			parts = append(parts, p.Kind.Label())
		}
	}
	return strings.Join(parts, " or ")
}

func describeCommand(c demux.Command) string {
	if c.IsEmpty() {
		return "(none)"
	}
	return strings.TrimSpace(c.String())
}
