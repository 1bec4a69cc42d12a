package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/catalog/anilist"
	"animedb/internal/record"
)

func TestAniListCrossIDLookup(t *testing.T) {
	media := aniMedia(1, "Cowboy Bebop", 1998)
	score := 86
	media.AverageScore = &score
	media.IDMal = record.Ptr(1)
	client := &fakeAniList{byMAL: map[int]anilist.Media{1: media}}
	covers := &fakeCovers{}

	fallback := record.Record{MALID: record.Ptr(1), Title: "Cowboy Bebop"}
	rec, outcome, err := NewAniList(client, Options{MinScore: 50, Covers: covers}).
		Resolve(context.Background(), "Cowboy Bebop (1998)", "/lib/Cowboy Bebop (1998)", &fallback)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCrossID, outcome)
	assert.Empty(t, client.searches)
	assert.Equal(t, 1, *rec.AniListID)
	assert.InDelta(t, 86.0, *rec.Score, 0.001)
	assert.Equal(t, []string{"anilist-1.jpg"}, covers.names)
}

func TestAniListCrossIDMissFallsThroughToSearch(t *testing.T) {
	client := &fakeAniList{results: []anilist.Media{aniMedia(20, "Naruto Shippuuden", 2007)}}
	fallback := record.Record{MALID: record.Ptr(20), Title: "Naruto"}

	rec, outcome, err := NewAniList(client, Options{MinScore: 50}).
		Resolve(context.Background(), "Naruto", "/lib/Naruto", &fallback)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSearch, outcome)
	assert.Equal(t, []int{20}, client.lookups)
	assert.Equal(t, []string{"naruto"}, client.searches)
	assert.Equal(t, 20, *rec.AniListID)
}

func TestAniListExplicitIDNotRepeatedForCrossID(t *testing.T) {
	client := &fakeAniList{results: []anilist.Media{aniMedia(3, "Mushishi", 2005)}}
	fallback := record.Record{MALID: record.Ptr(457), Title: "Mushishi"}

	_, outcome, err := NewAniList(client, Options{MinScore: 50}).
		Resolve(context.Background(), "Mushishi [malid-457]", "/lib/Mushishi", &fallback)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSearch, outcome)
	assert.Equal(t, []int{457}, client.lookups)
}

func TestAniListAdoptsFallbackWhenNothingMatches(t *testing.T) {
	client := &fakeAniList{}
	fallback := record.Record{
		MALID:    record.Ptr(99),
		Title:    "Obscure OVA",
		Score:    record.Ptr(7.5),
		Genres:   []string{"Drama"},
		FullPath: "/old/path",
	}

	rec, outcome, err := NewAniList(client, Options{MinScore: 50}).
		Resolve(context.Background(), "Obscure OVA", "/lib/Obscure OVA", &fallback)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, outcome)
	assert.InDelta(t, 75.0, *rec.Score, 0.001)
	assert.Equal(t, record.ScoreScale, rec.ScoreScale)
	assert.Equal(t, "/lib/Obscure OVA", rec.FullPath)
	assert.Equal(t, []string{"Drama"}, rec.Genres)

	rec.Genres[0] = "Changed"
	assert.Equal(t, "Drama", fallback.Genres[0], "adopted record must not alias the fallback")
	assert.InDelta(t, 7.5, *fallback.Score, 0.001)
}

func TestAniListScoreFallsBackToOtherSource(t *testing.T) {
	media := aniMedia(8, "Trigun", 1998)
	client := &fakeAniList{results: []anilist.Media{media}}
	fallback := record.Record{MALID: record.Ptr(6), Score: record.Ptr(82.0), ScoreScale: record.ScoreScale}

	rec, outcome, err := NewAniList(client, Options{MinScore: 50}).
		Resolve(context.Background(), "Trigun", "/lib/Trigun", &fallback)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSearch, outcome)
	require.NotNil(t, rec.Score)
	assert.InDelta(t, 82.0, *rec.Score, 0.001)
	assert.Equal(t, 1998, *rec.Year)
}

func TestAniListUnresolvedWithoutFallback(t *testing.T) {
	client := &fakeAniList{results: []anilist.Media{aniMedia(1, "Something Else Entirely", 2010)}}
	rec, outcome, err := NewAniList(client, Options{MinScore: 50}).
		Resolve(context.Background(), "Haibane Renmei", "/lib/Haibane Renmei", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, outcome)
	assert.True(t, rec.IsEmpty())
}

func TestAniListRecordFields(t *testing.T) {
	media := aniMedia(21, "One Piece", 1999)
	media.IDMal = record.Ptr(21)
	media.Duration = record.Ptr(24)
	media.Episodes = record.Ptr(1000)
	media.IsAdult = record.Ptr(false)
	media.Genres = []string{"Action", "Adventure"}
	media.Studios.Nodes = append(media.Studios.Nodes, struct {
		Name string `json:"name"`
	}{Name: "Toei Animation"})
	client := &fakeAniList{results: []anilist.Media{media}}

	rec, _, err := NewAniList(client, Options{MinScore: 50}).
		Resolve(context.Background(), "One Piece", "/lib/One Piece", nil)
	require.NoError(t, err)
	assert.Equal(t, 21, *rec.MALID)
	assert.Equal(t, 24, *rec.Duration)
	assert.Equal(t, 1000, *rec.Episodes)
	require.NotNil(t, rec.IsAdult)
	assert.False(t, *rec.IsAdult)
	assert.Equal(t, []string{"Action", "Adventure"}, rec.Genres)
	assert.Equal(t, []string{"Toei Animation"}, rec.Studios)
	assert.Nil(t, rec.Rating)
	assert.Nil(t, rec.Type)
	assert.Nil(t, rec.Score)
}
