// Package preflight provides readiness checks for the catalogs and
// filesystem paths animedb depends on.
//
// The CLI "animedb status" command runs RunAll and prints one line per check;
// "animedb sync" runs the directory checks before taking the lock so a
// misconfigured data directory fails fast instead of after the first title.
package preflight
