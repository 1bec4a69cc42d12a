package library

import (
	"os"
	"path/filepath"

	"animedb/internal/record"
)

// Stale reports whether a record path points at a folder that was removed
// from a library root that still exists. Records whose whole root is gone
// (an unmounted drive, say) are not stale.
func Stale(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Lstat(path); err == nil || !os.IsNotExist(err) {
		return false
	}
	_, err := os.Stat(filepath.Dir(path))
	return err == nil
}

// Prune removes stale records from store and returns their keys. With dryRun
// set the store is left untouched.
func Prune(store *record.Store, dryRun bool) []string {
	var removed []string
	for _, key := range store.Keys() {
		rec, ok := store.Get(key)
		if !ok || !Stale(rec.FullPath) {
			continue
		}
		removed = append(removed, key)
		if !dryRun {
			store.Delete(key)
		}
	}
	return removed
}
