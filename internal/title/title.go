package title

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinQueryLength is the shortest cleaned query worth sending to a catalog.
const MinQueryLength = 3

// ErrQueryTooShort reports a folder name that cleans down to fewer than
// MinQueryLength characters and carries no explicit id.
var ErrQueryTooShort = errors.New("query too short")

var (
	explicitIDPattern = regexp.MustCompile(`(?i)\[malid-(\d+)\]`)
	yearHintPattern   = regexp.MustCompile(`\((\d{4})\)`)
	bracketPattern    = regexp.MustCompile(`\[[^\[\]]*\]`)
	parenPattern      = regexp.MustCompile(`\([^()]*\)`)
)

// Query is the normalized form of a folder name.
type Query struct {
	// Raw is the folder name as found on disk (the title key).
	Raw string
	// Text is the cleaned display title.
	Text string
	// ExplicitID is a MyAnimeList id taken from a "[malid-N]" tag; 0 when absent.
	ExplicitID int
	// Year is the release year hint from a "(YYYY)" group; 0 when absent.
	Year int
}

// HasExplicitID reports whether the folder name pins a catalog id.
func (q Query) HasExplicitID() bool {
	return q.ExplicitID > 0
}

// SearchText is the lowercased text sent to catalog search endpoints.
func (q Query) SearchText() string {
	return strings.ToLower(q.Text)
}

// Normalize splits raw into its query parts. The returned Query is populated
// even when err is ErrQueryTooShort so callers can log what was attempted.
func Normalize(raw string) (Query, error) {
	q := Query{
		Raw:        raw,
		Text:       Clean(raw),
		ExplicitID: explicitID(raw),
		Year:       YearHint(raw),
	}
	if !q.HasExplicitID() && utf8.RuneCountInString(q.Text) < MinQueryLength {
		return q, ErrQueryTooShort
	}
	return q, nil
}

func explicitID(raw string) int {
	match := explicitIDPattern.FindStringSubmatch(raw)
	if len(match) != 2 {
		return 0
	}
	id, err := strconv.Atoi(match[1])
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// YearHint returns the last parenthesized four digit year in raw, or 0.
func YearHint(raw string) int {
	matches := yearHintPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return 0
	}
	year, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0
	}
	return year
}

// Clean strips bracketed and parenthesized groups, turns hyphens into spaces,
// keeps letters, digits, spaces, periods, and exclamation marks, and collapses
// whitespace. Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := bracketPattern.ReplaceAllString(raw, "")
	s = parenPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "-", " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ', r == '.', r == '!':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
