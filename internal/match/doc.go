// Package match picks the catalog search result that best fits a folder name.
//
// Candidates are narrowed to the year hint when one is known (falling back to
// the full list when nothing matches the year), scored with textutil.Ratio, and
// the highest scorer is accepted only when it clears the configured minimum.
// Ties go to the earliest candidate, preserving the catalog's own ranking.
package match
