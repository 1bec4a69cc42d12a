package testsupport

import (
	"testing"

	"animedb/internal/config"
	"animedb/internal/record"
)

// OpenStores opens the MyAnimeList and AniList record stores for cfg.
func OpenStores(t testing.TB, cfg *config.Config) (*record.Store, *record.Store) {
	t.Helper()
	return record.Open(cfg.MALStorePath(), record.SourceMAL, nil),
		record.Open(cfg.AniListStorePath(), record.SourceAniList, nil)
}
