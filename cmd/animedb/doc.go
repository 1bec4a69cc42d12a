// Package main hosts the animedb CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, opens the record
// stores, and hands the work to the internal packages: sync and check drive
// enrich passes, clean prunes vanished folders, stats and show read the
// stores, watch runs the daemon, and status runs the preflight checks.
//
// Keep this package lean: add behavior to the internal packages first and
// surface it here through commands or flags.
package main
