package title

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeYearHint(t *testing.T) {
	q, err := Normalize("Cowboy Bebop (1998)")
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", q.Text)
	assert.Equal(t, 1998, q.Year)
	assert.False(t, q.HasExplicitID())
	assert.Equal(t, "cowboy bebop", q.SearchText())
	assert.Equal(t, "Cowboy Bebop (1998)", q.Raw)
}

func TestNormalizeExplicitID(t *testing.T) {
	q, err := Normalize("Anime Title [malid-42]")
	require.NoError(t, err)
	assert.True(t, q.HasExplicitID())
	assert.Equal(t, 42, q.ExplicitID)
	assert.Equal(t, "Anime Title", q.Text)
}

func TestNormalizeExplicitIDIsCaseInsensitive(t *testing.T) {
	q, err := Normalize("[MALID-7]")
	require.NoError(t, err, "explicit id must bypass the length check")
	assert.Equal(t, 7, q.ExplicitID)
	assert.Empty(t, q.Text)
}

func TestNormalizeLastYearWins(t *testing.T) {
	q, err := Normalize("Hellsing (2001) Ultimate (2006)")
	require.NoError(t, err)
	assert.Equal(t, 2006, q.Year)
	assert.Equal(t, "Hellsing Ultimate", q.Text)
}

func TestNormalizeTooShort(t *testing.T) {
	q, err := Normalize("K (2012)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryTooShort))
	assert.Equal(t, "K", q.Text)
	assert.Equal(t, 2012, q.Year)
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cowboy Bebop (1998)", "Cowboy Bebop"},
		{"[Group] Steins;Gate - 0 [1080p]", "SteinsGate 0"},
		{"Re-Zero", "Re Zero"},
		{"K-On!!", "K On!!"},
		{"Mob Psycho 100 (2016) (TV)", "Mob Psycho 100"},
		{"  Gintama.  ", "Gintama."},
		{"Pokémon: The Movie", "Pokémon The Movie"},
		{"[a[b]c] Title", "ac Title"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), "Clean(%q)", tt.in)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"Cowboy Bebop (1998)",
		"[Group] Steins;Gate - 0 [1080p]",
		"[a[b]c] (x(y)z) Title -- Two",
		"Fate/stay night: Unlimited Blade Works",
		"K-On!!",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean not idempotent for %q", in)
	}
}
