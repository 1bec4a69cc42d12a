package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/record"
)

func stores() (*record.Store, *record.Store) {
	return record.NewMemoryStore(record.SourceMAL), record.NewMemoryStore(record.SourceAniList)
}

func TestFillTheGapsFillsEmptyGenres(t *testing.T) {
	a, b := stores()
	a.Put("X", record.Record{Title: "X", Genres: []string{}})
	b.Put("X", record.Record{Title: "X", Genres: []string{"Action"}})

	report := FillTheGaps(a, b)

	ra, _ := a.Get("X")
	rb, _ := b.Get("X")
	assert.Equal(t, []string{"Action"}, ra.Genres)
	assert.Equal(t, []string{"Action"}, rb.Genres)
	assert.Equal(t, 1, report.Compared)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, record.SourceMAL, report.Changes[0].Into)
	assert.Equal(t, []string{"genres"}, report.Changes[0].Fields)
}

func TestFillTheGapsIsBidirectional(t *testing.T) {
	a, b := stores()
	a.Put("X", record.Record{Rating: record.Ptr("R"), Type: record.Ptr("TV")})
	b.Put("X", record.Record{Duration: record.Ptr(24), AniListID: record.Ptr(1)})

	FillTheGaps(a, b)

	ra, _ := a.Get("X")
	rb, _ := b.Get("X")
	assert.Equal(t, 24, *ra.Duration)
	assert.Equal(t, 1, *ra.AniListID)
	assert.Equal(t, "R", *rb.Rating)
	assert.Equal(t, "TV", *rb.Type)
}

func TestFillTheGapsNeverOverwrites(t *testing.T) {
	a, b := stores()
	a.Put("X", record.Record{Title: "Mine", Score: record.Ptr(0.0), IsAdult: record.Ptr(false), Year: record.Ptr(1998)})
	b.Put("X", record.Record{Title: "Theirs", Score: record.Ptr(88.0), IsAdult: record.Ptr(true), Year: record.Ptr(2001)})
	before, _ := a.Get("X")

	FillTheGaps(a, b)

	after, _ := a.Get("X")
	assert.Equal(t, before, after)
	rb, _ := b.Get("X")
	assert.Equal(t, "Theirs", rb.Title)
	assert.Equal(t, 88.0, *rb.Score)
}

func TestFillTheGapsIsIdempotent(t *testing.T) {
	a, b := stores()
	a.Put("X", record.Record{Title: "X", Episodes: record.Ptr(12)})
	a.Put("OnlyA", record.Record{Title: "A"})
	b.Put("X", record.Record{Studios: []string{"Madhouse"}, Year: record.Ptr(2006)})
	b.Put("OnlyB", record.Record{Title: "B"})

	FillTheGaps(a, b)
	snapA, _ := a.Get("X")
	snapB, _ := b.Get("X")

	second := FillTheGaps(a, b)

	againA, _ := a.Get("X")
	againB, _ := b.Get("X")
	assert.Equal(t, snapA, againA)
	assert.Equal(t, snapB, againB)
	assert.Zero(t, second.FieldsFilled())
	assert.False(t, a.Has("OnlyB"))
	assert.False(t, b.Has("OnlyA"))
}

func TestFillKeyIgnoresMissingCounterpart(t *testing.T) {
	a, b := stores()
	a.Put("X", record.Record{Title: "X"})
	assert.Nil(t, FillKey(a, b, "X"))
	assert.Nil(t, FillKey(a, b, "missing"))
}

func TestAdoptRescalesMALScore(t *testing.T) {
	mal := record.Record{MALID: record.Ptr(1), Score: record.Ptr(7.5), ScoreScale: 10, Genres: []string{"Action"}}

	adopted := Adopt(mal, record.SourceMAL, "/anime/X")

	require.NotNil(t, adopted.Score)
	assert.Equal(t, 75.0, *adopted.Score)
	assert.Equal(t, record.ScoreScale, adopted.ScoreScale)
	assert.Equal(t, "/anime/X", adopted.FullPath)
	assert.Equal(t, 7.5, *mal.Score, "fallback must not be mutated")

	adopted.Genres[0] = "Drama"
	assert.Equal(t, "Action", mal.Genres[0])
}

func TestAdoptLegacyScaleFromSource(t *testing.T) {
	legacy := record.Record{Score: record.Ptr(7.5)}
	assert.Equal(t, 75.0, *Adopt(legacy, record.SourceMAL, "").Score)
	assert.Equal(t, 7.5, *Adopt(legacy, record.SourceAniList, "").Score)

	normalized := record.Record{Score: record.Ptr(75.0), ScoreScale: 100}
	assert.Equal(t, 75.0, *Adopt(normalized, record.SourceMAL, "").Score, "already on 0-100")
}
