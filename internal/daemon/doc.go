// Package daemon keeps animedb running in watch mode.
//
// The daemon takes the run lock for its whole lifetime, runs one sync pass at
// start, then watches the library root directories with fsnotify. Bursts of
// filesystem events are debounced into a single follow-up pass, so copying a
// season folder triggers one sync rather than one per file.
//
// Keep enrichment logic out of here: the daemon only decides when a pass runs.
package daemon
