// Package covers downloads cover art into the local image directory.
//
// A Pool owns a bounded set of download workers. Schedule returns the local
// path a cover will live at immediately, so records can reference it before
// the download finishes; Wait flushes outstanding work. Existing files are
// never downloaded again, and a failed download is logged rather than
// aborting the run.
package covers
