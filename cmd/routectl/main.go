package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"media-router/internal/config"
	"media-router/internal/demux"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	player     string
	wide       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "routectl",
		Short: "Inspect and edit the custom demuxer table",
		Long: `routectl works directly on the media router config file. It lists and
edits the custom demuxer table and shows how files in the music folder
would be played.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath, err := config.DefaultPath()
	if err != nil {
		defaultPath = "config.json"
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		defaultPath = env
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultPath, "path to the config file")
	root.PersistentFlags().StringVar(&opts.player, "player", "mpv", "player program used by resolve and scan")
	root.PersistentFlags().BoolVar(&opts.wide, "wide", false, "always use the wide table layout")

	root.AddCommand(
		newListCmd(opts),
		newResolveCmd(opts),
		newScanCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newCloneCmd(opts),
		newMoveCmd(opts),
		newSetCommandCmd(opts),
	)
	return root
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist yet.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, found, err := config.LoadIfExists(o.configPath)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg = config.Default()
	}
	if cfg.CustomDemuxers == nil {
		cfg.CustomDemuxers = demux.NewTable()
	}
	return cfg, nil
}

// mutate loads the config, applies fn to it and saves the result.
func (o *options) mutate(fn func(cfg *config.Config) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return cfg.Save(o.configPath)
}

func (o *options) layout(w io.Writer) layout {
	if o.wide {
		return layoutWide
	}
	return detectLayout(w)
}

var errNoEntry = errors.New("no demuxer at that index")

// parseIndex parses a table index argument and checks it against t.
func parseIndex(arg string, t *demux.Table) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	if i < 0 || i >= t.Len() {
		return 0, fmt.Errorf("%w: %d (table has %d)", errNoEntry, i, t.Len())
	}
	return i, nil
}
