package preflight

import (
	"context"

	"animedb/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. Catalog checks
// touch the network and are skipped when offline is set.
func RunAll(ctx context.Context, cfg *config.Config, offline bool) []Result {
	if cfg == nil {
		return nil
	}

	results := Directories(cfg)
	results = append(results, CheckLibraryRoots(cfg.Library.Roots, cfg.Library.SkipHidden))
	if offline {
		return results
	}
	results = append(results,
		CheckMAL(ctx, cfg.MAL.BaseURL),
		CheckAniList(ctx, cfg.AniList.BaseURL),
	)
	return results
}

// Directories checks the directories animedb writes to.
func Directories(cfg *config.Config) []Result {
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Image directory", cfg.Paths.ImageDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
