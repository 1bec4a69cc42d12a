package enrich_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/enrich"
	"animedb/internal/library"
	"animedb/internal/testsupport"
)

func newCatalogServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var searches atomic.Int32
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/anime", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		fmt.Fprintf(w, `{"data":[
			{"mal_id":5,"title":"Cowboy Bebop: Tengoku no Tobira","year":2001,"score":8.38},
			{"mal_id":1,"title":"Cowboy Bebop","year":1998,"score":8.75,"episodes":26,
			 "rating":"R - 17+ (violence & profanity)","type":"TV",
			 "aired":{"from":"1998-04-03T00:00:00+00:00","prop":{"from":{"year":1998}}},
			 "genres":[{"mal_id":1,"name":"Action"}],"studios":[{"mal_id":14,"name":"Sunrise"}],
			 "images":{"jpg":{"large_image_url":"%s/img/mal-1.jpg"}}}
		]}`, srv.URL)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				IDMal *int `json:"idMal"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Variables.IDMal == nil || *req.Variables.IDMal != 1 {
			_, _ = w.Write([]byte(`{"data":{"Page":{"media":[]}}}`))
			return
		}
		fmt.Fprintf(w, `{"data":{"Page":{"media":[{"id":1,"idMal":1,"isAdult":false,
			"title":{"romaji":"Cowboy Bebop"},"startDate":{"year":1998},
			"genres":["Action","Sci-Fi"],"episodes":26,"duration":24,"averageScore":86,
			"coverImage":{"large":"%s/img/anilist-1.jpg"},
			"studios":{"nodes":[{"name":"Sunrise"}]}}]}}}`, srv.URL)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &searches
}

func TestRuntimeSyncAgainstCatalogServer(t *testing.T) {
	srv, searches := newCatalogServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalogURL(srv.URL))
	testsupport.MakeTitles(t, cfg.Library.Roots[0], "Cowboy Bebop (1998)")

	rt, err := enrich.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	entries, err := library.Scan(cfg.Library.Roots, cfg.Library.SkipHidden)
	require.NoError(t, err)
	summary, err := rt.Driver.Sync(context.Background(), entries, enrich.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 2, summary.Covers.Downloaded)

	malStore, aniStore := testsupport.OpenStores(t, cfg)
	malRec, ok := malStore.Get("Cowboy Bebop (1998)")
	require.True(t, ok)
	assert.Equal(t, 1, *malRec.MALID)
	assert.InDelta(t, 87.5, *malRec.Score, 0.001)
	assert.Equal(t, 24, *malRec.Duration, "duration filled from AniList")
	assert.Equal(t, filepath.Join(cfg.Paths.ImageDir, "mal-1.jpg"), malRec.Image)

	aniRec, ok := aniStore.Get("Cowboy Bebop (1998)")
	require.True(t, ok)
	assert.Equal(t, 1, *aniRec.AniListID)
	assert.Equal(t, "R", *aniRec.Rating, "rating filled from MAL")
	assert.Equal(t, filepath.Join(cfg.Paths.ImageDir, "anilist-1.jpg"), aniRec.Image)

	_, statErr := os.Stat(malRec.Image)
	assert.NoError(t, statErr)
	assert.EqualValues(t, 1, searches.Load())

	again, err := rt.Driver.Sync(context.Background(), entries, enrich.Options{})
	require.NoError(t, err)
	assert.Zero(t, again.Pending, "tracked titles are not resolved again")
}

func TestRuntimeLookupsAreCached(t *testing.T) {
	srv, searches := newCatalogServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalogURL(srv.URL))
	entries := []library.Entry{{Key: "Cowboy Bebop (1998)", Path: "/lib/Cowboy Bebop (1998)"}}

	for i := 0; i < 2; i++ {
		rt, err := enrich.Open(context.Background(), cfg, nil)
		require.NoError(t, err)
		_, err = rt.Driver.Refresh(context.Background(), entries, enrich.Options{})
		require.NoError(t, err)
		require.NoError(t, rt.Close())
	}
	assert.EqualValues(t, 1, searches.Load(), "second run is served from the lookup cache")
}
