package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/library"
	"animedb/internal/record"
	"animedb/internal/resolve"
)

type resolveCall struct {
	key      string
	fallback *record.Record
}

type fakeResolver struct {
	source    record.Source
	records   map[string]record.Record
	errs      map[string]error
	calls     []resolveCall
	onResolve func(key string)
}

func (f *fakeResolver) Source() record.Source { return f.source }

func (f *fakeResolver) Resolve(_ context.Context, key, path string, fallback *record.Record) (record.Record, resolve.Outcome, error) {
	f.calls = append(f.calls, resolveCall{key: key, fallback: fallback})
	if f.onResolve != nil {
		f.onResolve(key)
	}
	if err := f.errs[key]; err != nil {
		return record.Record{}, resolve.OutcomeUnresolved, err
	}
	rec, ok := f.records[key]
	if !ok {
		if fallback != nil {
			adopted := fallback.Clone()
			adopted.FullPath = path
			return adopted, resolve.OutcomeFallback, nil
		}
		return record.Record{}, resolve.OutcomeUnresolved, nil
	}
	rec.FullPath = path
	return rec, resolve.OutcomeSearch, nil
}

type fixture struct {
	driver   *Driver
	mal      *fakeResolver
	anilist  *fakeResolver
	malStore *record.Store
	aniStore *record.Store
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		mal:      &fakeResolver{source: record.SourceMAL, records: map[string]record.Record{}, errs: map[string]error{}},
		anilist:  &fakeResolver{source: record.SourceAniList, records: map[string]record.Record{}, errs: map[string]error{}},
		malStore: record.Open(filepath.Join(dir, "maldb.json"), record.SourceMAL, nil),
		aniStore: record.Open(filepath.Join(dir, "anilist.json"), record.SourceAniList, nil),
		dir:      dir,
	}
	driver, err := New(Deps{MAL: f.mal, AniList: f.anilist, MALStore: f.malStore, AniListStore: f.aniStore})
	require.NoError(t, err)
	f.driver = driver
	return f
}

func entries(keys ...string) []library.Entry {
	out := make([]library.Entry, 0, len(keys))
	for _, key := range keys {
		out = append(out, library.Entry{Path: "/lib/" + key, Key: key})
	}
	return out
}

func TestSyncResolvesPendingTitlesAndSaves(t *testing.T) {
	f := newFixture(t)
	f.mal.records["Cowboy Bebop (1998)"] = record.Record{
		MALID:  record.Ptr(1),
		Title:  "Cowboy Bebop",
		Rating: record.Ptr("R"),
		Genres: []string{"Action"},
	}
	f.anilist.records["Cowboy Bebop (1998)"] = record.Record{
		AniListID: record.Ptr(1),
		Title:     "Cowboy Bebop",
		Duration:  record.Ptr(24),
		Score:     record.Ptr(86.0),
	}
	f.malStore.Put("Done", record.Record{Title: "Done"})
	f.aniStore.Put("Done", record.Record{Title: "Done"})

	summary, err := f.driver.Sync(context.Background(), entries("Done", "Cowboy Bebop (1998)"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Processed)
	assert.NotEmpty(t, summary.RunID)

	require.Len(t, f.anilist.calls, 1)
	require.NotNil(t, f.anilist.calls[0].fallback, "AniList receives the MAL record as fallback")
	assert.Equal(t, 1, *f.anilist.calls[0].fallback.MALID)

	ani, ok := f.aniStore.Get("Cowboy Bebop (1998)")
	require.True(t, ok)
	assert.Equal(t, "R", *ani.Rating, "gaps filled from the MAL record")
	assert.Equal(t, []string{"Action"}, ani.Genres)
	malRec, _ := f.malStore.Get("Cowboy Bebop (1998)")
	assert.Equal(t, 24, *malRec.Duration)
	assert.InDelta(t, 86.0, *malRec.Score, 0.001)

	reopened := record.Open(filepath.Join(f.dir, "anilist.json"), record.SourceAniList, nil)
	assert.True(t, reopened.Has("Cowboy Bebop (1998)"))
	assert.Equal(t, "/lib/Cowboy Bebop (1998)", mustGet(t, reopened, "Cowboy Bebop (1998)").FullPath)
}

func mustGet(t *testing.T, store *record.Store, key string) record.Record {
	t.Helper()
	rec, ok := store.Get(key)
	require.True(t, ok, "missing %q", key)
	return rec
}

func TestSyncHonoursLimit(t *testing.T) {
	f := newFixture(t)
	summary, err := f.driver.Sync(context.Background(), entries("Alpha", "Beta", "Gamma"), Options{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Processed)
	assert.Len(t, f.mal.calls, 2)
}

func TestSyncDryRunResolvesNothing(t *testing.T) {
	f := newFixture(t)
	summary, err := f.driver.Sync(context.Background(), entries("Alpha", "Beta"), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Pending)
	assert.Zero(t, summary.Processed)
	assert.Empty(t, f.mal.calls)
	_, statErr := os.Stat(filepath.Join(f.dir, "maldb.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSyncContinuesAfterTitleError(t *testing.T) {
	f := newFixture(t)
	f.mal.errs["Broken"] = errors.New("status 500")
	f.mal.records["Working"] = record.Record{MALID: record.Ptr(2), Title: "Working"}

	summary, err := f.driver.Sync(context.Background(), entries("Broken", "Working"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Error(t, summary.Results[0].Err)
	assert.False(t, f.malStore.Has("Broken"))
	assert.True(t, f.malStore.Has("Working"))
	assert.True(t, f.aniStore.Has("Working"), "AniList adopts the MAL record")
}

func TestSyncStopsBetweenTitlesOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.mal.onResolve = func(string) { cancel() }
	f.mal.records["First"] = record.Record{MALID: record.Ptr(1), Title: "First"}

	summary, err := f.driver.Sync(ctx, entries("First", "Second"), Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Processed)
	assert.True(t, f.malStore.Has("First"), "finished title is kept")
	assert.False(t, f.malStore.Has("Second"))
}

func TestRefreshKeepsExistingRecordOnFallback(t *testing.T) {
	f := newFixture(t)
	f.mal.records["Show"] = record.Record{MALID: record.Ptr(5), Title: "Show", Type: record.Ptr("TV")}
	f.aniStore.Put("Show", record.Record{AniListID: record.Ptr(50), Title: "Show AniList"})

	_, err := f.driver.Refresh(context.Background(), entries("Show"), Options{})
	require.NoError(t, err)

	ani := mustGet(t, f.aniStore, "Show")
	assert.Equal(t, 50, *ani.AniListID)
	assert.Equal(t, "Show AniList", ani.Title)
	assert.Equal(t, "TV", *ani.Type)
}

func TestSyncAdoptsAniListRecordWhenMALFindsNothing(t *testing.T) {
	f := newFixture(t)
	f.anilist.records["X"] = record.Record{
		AniListID: record.Ptr(9),
		Title:     "X",
		Year:      record.Ptr(2004),
		Score:     record.Ptr(71.0),
	}

	summary, err := f.driver.Sync(context.Background(), entries("X"), Options{})
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, resolve.OutcomeFallback, summary.Results[0].MAL)
	assert.Equal(t, resolve.OutcomeSearch, summary.Results[0].AniList)

	malRec := mustGet(t, f.malStore, "X")
	assert.Equal(t, 9, *malRec.AniListID)
	assert.Equal(t, 2004, *malRec.Year)
	assert.InDelta(t, 71.0, *malRec.Score, 0.001)
	assert.Equal(t, "/lib/X", malRec.FullPath)

	assert.Empty(t, f.driver.Pending(entries("X")), "title is tracked in both stores")
	again, err := f.driver.Sync(context.Background(), entries("X"), Options{})
	require.NoError(t, err)
	assert.Zero(t, again.Pending)
	assert.Len(t, f.mal.calls, 1, "no further catalog lookups")
}

func TestRefreshPassesAniListRecordAsMALFallback(t *testing.T) {
	f := newFixture(t)
	f.aniStore.Put("Y", record.Record{AniListID: record.Ptr(3), Title: "Y", Year: record.Ptr(1999)})

	_, err := f.driver.Refresh(context.Background(), entries("Y"), Options{})
	require.NoError(t, err)

	require.Len(t, f.mal.calls, 1)
	require.NotNil(t, f.mal.calls[0].fallback)
	assert.Equal(t, 3, *f.mal.calls[0].fallback.AniListID)
	malRec := mustGet(t, f.malStore, "Y")
	assert.Equal(t, 1999, *malRec.Year)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "resolvers"))
}
