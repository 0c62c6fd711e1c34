/*
Package launcher turns playlist items into running player processes.

NewPlan resolves an item against the demuxer table. When no entry matches,
the player is started with the file path as its last argument. When an
entry matches, its reader command is started with the song path substituted
for "{}" and its standard output is piped into the player, which is told to
read from standard input.

	plan := launcher.NewPlan(table, root, item, launcher.DefaultPlayer(), prefs)
	info, err := l.Launch(ctx, plan)

A Launcher tracks running sessions, forwards process output to the log and
records every launch in the play history when one is configured.
*/
package launcher
