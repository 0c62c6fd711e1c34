// Command routectl inspects and edits the custom demuxer table of a media
// router config file without a running daemon.
//
// Usage:
//
//	routectl [--config path] <command>
//
// Commands:
//
//	list                    show the table in priority order
//	resolve <path>          show the pipeline used to play a file
//	scan                    build the playlist and show the rule for each item
//	add                     append a demuxer (see routectl add --help)
//	remove <n>              remove the demuxer at index n
//	clone <n>               duplicate the demuxer at index n
//	move <n> up|down        change the priority of a demuxer
//	set-command <n> <text>  replace a reader command
//
// The config path defaults to CONFIG_PATH, then the platform config
// directory. Edits are written back atomically; a running daemon picks
// them up on restart.
//
// Output uses a compact layout on terminals narrower than 100 columns and
// an aligned table otherwise.
package main
