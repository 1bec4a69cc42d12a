package enrich

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"animedb/internal/library"
	"animedb/internal/logging"
	"animedb/internal/record"
)

// Incomplete describes a record with absent fields.
type Incomplete struct {
	Key     string
	Path    string
	Source  record.Source
	Missing []string
}

// FindIncomplete lists records of store with absent fields, skipping titles
// from currentYear whose metadata is usually still being filled in upstream.
func FindIncomplete(store *record.Store, currentYear int) []Incomplete {
	var out []Incomplete
	for _, key := range store.Keys() {
		rec, _ := store.Get(key)
		missing := rec.MissingFields()
		if len(missing) == 0 {
			continue
		}
		if rec.Year != nil && *rec.Year == currentYear {
			continue
		}
		out = append(out, Incomplete{Key: key, Path: rec.FullPath, Source: store.Source(), Missing: missing})
	}
	return out
}

// Entries converts incomplete records into library entries for Refresh.
func Entries(items []Incomplete) []library.Entry {
	entries := make([]library.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, library.Entry{Path: item.Path, Key: item.Key})
	}
	return entries
}

// PruneResult lists the keys removed from each store.
type PruneResult struct {
	MAL     []string
	AniList []string
}

// Total returns the number of removed records across both stores.
func (r PruneResult) Total() int { return len(r.MAL) + len(r.AniList) }

// Prune drops records whose folder vanished from a still-present library
// root and saves the stores unless dryRun is set.
func Prune(malStore, aniStore *record.Store, dryRun bool, logger *slog.Logger) (PruneResult, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := PruneResult{
		MAL:     library.Prune(malStore, dryRun),
		AniList: library.Prune(aniStore, dryRun),
	}
	logger.Info("pruned stale records",
		logging.Int("mal_removed", len(result.MAL)),
		logging.Int("anilist_removed", len(result.AniList)),
		logging.Bool("dry_run", dryRun))
	if dryRun || result.Total() == 0 {
		return result, nil
	}
	return result, saveStores(logger, malStore, aniStore)
}

// Stats summarizes the AniList store.
type Stats struct {
	Titles         int
	Watched        int
	WatchedPercent int
	Minutes        int
	Hours          int
	Days           int
}

// ComputeStats totals the library from store. watched lists title keys the
// user has seen; keys not in the store are ignored.
func ComputeStats(store *record.Store, watched []string) Stats {
	stats := Stats{Titles: store.Len()}
	seen := make(map[string]struct{}, len(watched))
	for _, key := range watched {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if store.Has(key) {
			stats.Watched++
		}
	}
	for _, key := range store.Keys() {
		rec, _ := store.Get(key)
		if rec.Duration != nil && rec.Episodes != nil {
			stats.Minutes += *rec.Duration * *rec.Episodes
		}
	}
	stats.Hours = stats.Minutes / 60
	stats.Days = stats.Hours / 24
	if stats.Titles > 0 {
		stats.WatchedPercent = stats.Watched * 100 / stats.Titles
	}
	return stats
}

// ReadWatched reads one title key per line from r.
func ReadWatched(r io.Reader) ([]string, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read watched list: %w", err)
	}
	return keys, nil
}

// ReadWatchedFile reads a watched list from path.
func ReadWatchedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watched list: %w", err)
	}
	defer f.Close()
	return ReadWatched(f)
}
