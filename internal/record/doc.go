// Package record defines the per-source metadata record and its JSON store.
//
// A Store maps title keys (raw library folder names) to Records for a single
// catalog source. It is loaded whole and saved whole: before each save the
// current file is copied to "<file>.bak", then the new content is written to a
// temp file and renamed into place. When the primary file is unreadable the
// backup is tried, and when that fails too the store starts empty.
//
// # Absent values
//
// Optional fields are pointers or slices. nil, an empty slice, or an empty
// string means the value is unknown; a present zero score or false adult flag
// is a real value and is never treated as a gap.
//
// # Scores
//
// Scores are held on a 0-100 scale. Records written by older tooling carry no
// score_scale field; they are read with the source's historical scale (MAL 10,
// AniList 100) and rescaled on load.
package record
