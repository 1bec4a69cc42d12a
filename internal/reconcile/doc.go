// Package reconcile merges the MAL and AniList views of the same title.
//
// Gap filling is bidirectional and only ever fills absent fields, so running
// it repeatedly is harmless. Adopt derives a record for one source from the
// other source's record when the first found no confident match.
package reconcile
