package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/catalog/mal"
	"animedb/internal/record"
)

func TestMALExplicitIDBypassesSearch(t *testing.T) {
	client := &fakeMAL{byID: map[int]mal.Anime{42: malAnime(42, "Some Show", 2004)}}
	covers := &fakeCovers{}
	r := NewMAL(client, Options{MinScore: 50, Covers: covers})

	rec, outcome, err := r.Resolve(context.Background(), "Whatever [malid-42]", "/lib/Whatever [malid-42]", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExplicitID, outcome)
	assert.Empty(t, client.searches)
	assert.Equal(t, []int{42}, client.lookups)
	require.NotNil(t, rec.MALID)
	assert.Equal(t, 42, *rec.MALID)
	assert.Equal(t, "/lib/Whatever [malid-42]", rec.FullPath)
	assert.Equal(t, "/images/mal-42.jpg", rec.Image)
	assert.Equal(t, []string{"mal-42.jpg"}, covers.names)
}

func TestMALExplicitIDFailureFallsThroughToSearch(t *testing.T) {
	client := &fakeMAL{results: []mal.Anime{malAnime(1, "Monster", 2004)}}
	r := NewMAL(client, Options{MinScore: 50})

	rec, outcome, err := r.Resolve(context.Background(), "Monster [malid-999]", "/lib/Monster", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSearch, outcome)
	assert.Equal(t, []int{999}, client.lookups)
	assert.Equal(t, []string{"monster"}, client.searches)
	assert.Equal(t, 1, *rec.MALID)
}

func TestMALYearHintPicksMatchingRelease(t *testing.T) {
	client := &fakeMAL{results: []mal.Anime{
		malAnime(5, "Cowboy Bebop: Tengoku no Tobira", 2001),
		malAnime(1, "Cowboy Bebop", 1998),
	}}
	r := NewMAL(client, Options{MinScore: 50})

	rec, outcome, err := r.Resolve(context.Background(), "Cowboy Bebop (1998)", "/lib/Cowboy Bebop (1998)", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSearch, outcome)
	assert.Equal(t, []string{"cowboy bebop"}, client.searches)
	assert.Equal(t, 1, *rec.MALID)
	assert.Equal(t, "Cowboy Bebop", rec.Title)
	assert.Equal(t, 1998, *rec.Year)
}

func TestMALRecordFields(t *testing.T) {
	anime := malAnime(30, "Neon Genesis Evangelion", 0)
	score := 7.5
	episodes := 26
	rating := "PG-13 - Teens 13 or older"
	kind := "TV"
	from := "1995-10-04T00:00:00+00:00"
	year := 1995
	anime.Score = &score
	anime.Episodes = &episodes
	anime.Rating = &rating
	anime.Type = &kind
	anime.Aired.From = &from
	anime.Aired.Prop.From.Year = &year
	anime.Genres = []mal.Named{{Name: "Action"}, {Name: "Sci-Fi"}}
	anime.Studios = []mal.Named{{Name: "Gainax"}}

	client := &fakeMAL{results: []mal.Anime{anime}}
	rec, _, err := NewMAL(client, Options{MinScore: 50}).Resolve(context.Background(), "Neon Genesis Evangelion", "/lib/NGE", nil)
	require.NoError(t, err)

	require.NotNil(t, rec.Score)
	assert.InDelta(t, 75.0, *rec.Score, 0.001)
	assert.Equal(t, record.ScoreScale, rec.ScoreScale)
	assert.Equal(t, "PG-13", *rec.Rating)
	assert.False(t, *rec.IsAdult)
	assert.Equal(t, 1995, *rec.Year, "year falls back to the air date")
	assert.Equal(t, from, *rec.Aired)
	assert.Equal(t, "TV", *rec.Type)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, rec.Genres)
	assert.Equal(t, []string{"Gainax"}, rec.Studios)
	assert.Nil(t, rec.AniListID)
	assert.Nil(t, rec.Duration)
}

func TestMALAdultRating(t *testing.T) {
	anime := malAnime(7, "Some Adult Title", 2001)
	rating := "Rx - Hentai"
	anime.Rating = &rating
	client := &fakeMAL{results: []mal.Anime{anime}}

	rec, _, err := NewMAL(client, Options{MinScore: 50}).Resolve(context.Background(), "Some Adult Title", "/lib/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Rx", *rec.Rating)
	assert.True(t, *rec.IsAdult)
}

func TestMALNoMatchIsUnresolved(t *testing.T) {
	client := &fakeMAL{results: []mal.Anime{malAnime(1, "Completely Different", 2000)}}
	rec, outcome, err := NewMAL(client, Options{MinScore: 50}).Resolve(context.Background(), "Mushishi", "/lib/Mushishi", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnresolved, outcome)
	assert.True(t, rec.IsEmpty())
}

func TestMALShortQueryIsSkipped(t *testing.T) {
	client := &fakeMAL{}
	_, outcome, err := NewMAL(client, Options{MinScore: 50}).Resolve(context.Background(), "K (2012)", "/lib/K", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.False(t, outcome.Resolved())
	assert.Empty(t, client.searches)
}

func TestMALSearchErrorIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	client := &fakeMAL{searchErr: boom}
	_, outcome, err := NewMAL(client, Options{MinScore: 50}).Resolve(context.Background(), "Trigun", "/lib/Trigun", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, OutcomeUnresolved, outcome)
}

func TestMALCancelledExplicitLookupStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &fakeMAL{}
	_, _, err := NewMAL(client, Options{MinScore: 50}).Resolve(ctx, "Trigun [malid-6]", "/lib/Trigun", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.searches)
}
