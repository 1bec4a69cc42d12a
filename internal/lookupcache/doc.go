// Package lookupcache persists catalog responses in SQLite so repeated runs
// do not query MyAnimeList or AniList for lookups made recently.
//
// Entries expire after a configurable lifetime; expired rows are ignored on
// read and removed by Prune. The cache satisfies catalog.Cache.
package lookupcache
