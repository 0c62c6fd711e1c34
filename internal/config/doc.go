// Package config loads and saves the persisted user configuration.
//
// The file is a JSON object; absent fields take defaults:
//
//	{
//	  "music_folder": "/home/me/music",      // nullable
//	  "custom_demuxers": [ ... ],            // default []
//	  "volume": 50,
//	  "speed": 1.0,
//	  "video": false,
//	  "theme": null,
//	  "follow_symlinks": false,
//	  "skip_hidden": false,
//	  "fallback_font_paths": []
//	}
//
// The custom_demuxers array uses the shape documented in package demux and
// accepts older files where extension predicates were bare strings. A
// document that cannot be decoded is returned as an error; whether to fall
// back to Default is up to the caller.
package config
