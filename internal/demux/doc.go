// Package demux decides which external invocation plays a given file.
//
// A Table holds an ordered list of custom demuxer entries. Each Entry pairs
// a list of predicates with a reader command template:
//
//	tfmx: BeginsWith("mdat.")            -> uade123 -c {}
//	mods: HasExtensions("mod xm it", no) -> openmpt123 --stdout {}
//
// Resolve walks the table in order and returns the first entry with any
// matching predicate. When nothing matches the caller plays the file with
// the default player invocation.
//
// Command templates round-trip through a single editable line where the
// token "{}" stands for the song path. Quoting is not supported: every run
// of whitespace separates two arguments.
//
// Entries are addressed by EntryID rather than by position so that a
// selection survives removals and reordering. The Editor models the single
// active text edit shared across the whole table.
//
// The persisted JSON shape is the one used by the custom_demuxers array of
// the configuration file, including the legacy bare-string form of the
// extension predicate.
package demux
