package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"media-router/internal/config"
	"media-router/internal/demux"
	"media-router/internal/launcher"
	"media-router/internal/playlist"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the demuxer table in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.CustomDemuxers.Len() == 0 {
				fmt.Fprintln(out, "No custom demuxers configured.")
				return nil
			}
			return writeEntries(out, opts.layout(out), cfg.CustomDemuxers.Entries())
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show how a file would be played",
		Long: `Resolve prints the command pipeline for a file. Relative paths are taken
relative to the music folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			root := cfg.Root()
			item := args[0]
			if filepath.IsAbs(item) {
				root = ""
			}
			plan := launcher.NewPlan(cfg.CustomDemuxers, root, playlist.Item{Path: item}, opts.playerFor(), preferences(cfg))

			out := cmd.OutOrStdout()
			if plan.Routed() {
				fmt.Fprintf(out, "rule:    %s\n", plan.Rule)
			} else {
				fmt.Fprintln(out, "rule:    (default player)")
			}
			fmt.Fprintf(out, "command: %s\n", plan.String())
			return nil
		},
	}
}

func newScanCmd(opts *options) *cobra.Command {
	var routedOnly bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Build the playlist and show the rule chosen for every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			root := cfg.Root()
			if root == "" {
				return fmt.Errorf("no music folder configured in %s", opts.configPath)
			}

			buildOpts := cfg.PlaylistOptions()
			var skipped []string
			buildOpts.Observer = observerFunc(func(path string, err error) {
				skipped = append(skipped, fmt.Sprintf("%s: %v", path, err))
			})
			pl := playlist.Build(buildOpts)

			rows := make([]scanRow, 0, pl.Len())
			for i, item := range pl.All() {
				rule := ""
				if entry, ok := cfg.CustomDemuxers.Resolve(filepath.Join(root, item.Path)); ok {
					rule = entry.DisplayName()
				} else if routedOnly {
					continue
				}
				rows = append(rows, scanRow{index: i, path: item.Path, rule: rule})
			}

			out := cmd.OutOrStdout()
			writeScan(out, rows)
			for _, s := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", s)
			}
			fmt.Fprintf(out, "%d items\n", pl.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&routedOnly, "routed", false, "only show items handled by a demuxer")
	return cmd
}

func newAddCmd(opts *options) *cobra.Command {
	var (
		name          string
		beginsWith    []string
		exts          string
		caseSensitive bool
		command       string
		extraArgs     []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a demuxer to the end of the table",
		Example: `  routectl add --name uade --begins-with mdat. --command "uade123 -c {}"
  routectl add --name openmpt --exts "mod xm it" --command "openmpt123 --stdout {}" --extra-arg=--demuxer=rawaudio`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var reader demux.Command
			if command != "" {
				parsed, err := demux.ParseCommand(command)
				if err != nil {
					return err
				}
				reader = parsed
			}

			var index int
			err := opts.mutate(func(cfg *config.Config) error {
				index = cfg.CustomDemuxers.Add()
				entry, _ := cfg.CustomDemuxers.At(index)
				cfg.CustomDemuxers.Update(entry.ID, func(e *demux.Entry) {
					e.Name = name
					for _, f := range beginsWith {
						e.Predicates = append(e.Predicates, demux.BeginsWith(f))
					}
					if exts != "" {
						e.Predicates = append(e.Predicates, demux.HasExtensions(exts, caseSensitive))
					}
					e.ReaderCmd = reader
					e.ExtraArgs = extraArgs
				})
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added demuxer %d\n", index)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "demuxer name")
	cmd.Flags().StringArrayVar(&beginsWith, "begins-with", nil, "match file names starting with this fragment (repeatable)")
	cmd.Flags().StringVar(&exts, "exts", "", "match this space separated list of extensions")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "compare extensions exactly")
	cmd.Flags().StringVar(&command, "command", "", "reader command; {} is replaced by the song path")
	cmd.Flags().StringArrayVar(&extraArgs, "extra-arg", nil, "extra player argument (repeatable)")
	return cmd
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <n>",
		Short: "Remove the demuxer at index n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed string
			err := opts.mutate(func(cfg *config.Config) error {
				i, err := parseIndex(args[0], cfg.CustomDemuxers)
				if err != nil {
					return err
				}
				entry, _ := cfg.CustomDemuxers.At(i)
				removed = entry.DisplayName()
				cfg.CustomDemuxers.Remove(i)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", removed)
			return nil
		},
	}
}

func newCloneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clone <n>",
		Short: "Duplicate the demuxer at index n",
		Long:  "The copy is inserted at index n and the original moves down by one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var index int
			err := opts.mutate(func(cfg *config.Config) error {
				i, err := parseIndex(args[0], cfg.CustomDemuxers)
				if err != nil {
					return err
				}
				cfg.CustomDemuxers.Clone(i)
				index = i
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cloned demuxer %d, original is now %d\n", index, index+1)
			return nil
		},
	}
}

func newMoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move <n> up|down",
		Short: "Change the priority of the demuxer at index n",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := strings.ToLower(args[1])
			if direction != "up" && direction != "down" {
				return fmt.Errorf("invalid direction %q, expected up or down", args[1])
			}

			var from, to int
			err := opts.mutate(func(cfg *config.Config) error {
				i, err := parseIndex(args[0], cfg.CustomDemuxers)
				if err != nil {
					return err
				}
				entry, _ := cfg.CustomDemuxers.At(i)
				if direction == "up" {
					cfg.CustomDemuxers.MoveUp(entry.ID)
				} else {
					cfg.CustomDemuxers.MoveDown(entry.ID)
				}
				from, to = i, cfg.CustomDemuxers.IndexOf(entry.ID)
				return nil
			})
			if err != nil {
				return err
			}
			if from == to {
				fmt.Fprintf(cmd.OutOrStdout(), "Demuxer %d is already at the %s\n", from, edgeName(direction))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved demuxer %d to %d\n", from, to)
			return nil
		},
	}
}

func edgeName(direction string) string {
	if direction == "up" {
		return "top"
	}
	return "bottom"
}

func newSetCommandCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-command <n> <text>",
		Short: "Replace the reader command of the demuxer at index n",
		Long: `The command text is split on whitespace. The first word is the program and
every {} is replaced by the song path when playing.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			parsed, err := demux.ParseCommand(text)
			if err != nil {
				return err
			}

			err = opts.mutate(func(cfg *config.Config) error {
				i, err := parseIndex(args[0], cfg.CustomDemuxers)
				if err != nil {
					return err
				}
				entry, _ := cfg.CustomDemuxers.At(i)
				cfg.CustomDemuxers.Update(entry.ID, func(e *demux.Entry) {
					e.ReaderCmd = parsed
				})
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reader command set to: %s\n", strings.TrimSpace(parsed.String()))
			return nil
		},
	}
}

func (o *options) playerFor() launcher.Player {
	return launcher.Player{Program: o.player}
}

func preferences(cfg *config.Config) launcher.Preferences {
	return launcher.Preferences{Volume: cfg.Volume, Speed: cfg.Speed, Video: cfg.Video}
}

type observerFunc func(path string, err error)

func (f observerFunc) SkippedEntry(path string, err error) {
	f(path, err)
}
