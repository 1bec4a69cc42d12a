// Package enrich drives metadata enrichment for a whole library.
//
// The Driver walks library entries that are missing from either record store,
// resolves each title against MyAnimeList first and AniList second (handing
// the MyAnimeList record to AniList as its fallback), fills gaps between the
// two records, and saves both stores after every title so an interrupted run
// loses at most the title in flight. Per-title failures are logged and the
// batch continues.
//
// The package also hosts the maintenance passes built on the same stores:
// Incomplete/Refresh for records with gaps, Prune for vanished folders, and
// Stats for library totals.
package enrich
