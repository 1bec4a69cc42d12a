// Package resolve turns a library folder name into a metadata record for one
// catalog.
//
// Each adapter normalizes the folder name, tries direct id lookups first
// (an explicit "[malid-N]" tag, and for AniList the MyAnimeList id of the
// other store's record), then searches the catalog and lets the matcher pick
// a candidate. When nothing matches, a fallback record from the other source
// is adopted instead. Every call reports an Outcome describing which path
// produced the record.
package resolve
