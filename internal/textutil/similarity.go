package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	tokenSortWeight = 0.95
	partialWeight   = 0.90
	// partialLengthRatio is how much longer one title must be before partial
	// alignment is considered.
	partialLengthRatio = 1.5
)

// tokenSplitPattern matches runs of characters that are not letters or digits.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fold lowercases text and strips combining marks ("Pokémon" -> "pokemon").
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokenize folds text and splits it into letter/digit tokens.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(Fold(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Ratio returns the fuzzy similarity of a and b on a 0-100 scale. Inputs that
// fold to nothing are treated as unrelated.
func Ratio(a, b string) float64 {
	ta := Tokenize(a)
	tb := Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	plainA, plainB := strings.Join(ta, " "), strings.Join(tb, " ")
	best := levenshteinRatio(plainA, plainB)
	if best == 100 {
		return best
	}

	sort.Strings(ta)
	sort.Strings(tb)
	sortedA, sortedB := strings.Join(ta, " "), strings.Join(tb, " ")
	best = max(best, tokenSortWeight*levenshteinRatio(sortedA, sortedB))
	if sortedA == sortedB {
		return 100
	}

	shortLen, longLen := runeLen(plainA), runeLen(plainB)
	if shortLen > longLen {
		shortLen, longLen = longLen, shortLen
	}
	if float64(longLen)/float64(shortLen) >= partialLengthRatio {
		best = max(best, partialWeight*partialRatio(plainA, plainB))
		best = max(best, partialWeight*tokenSortWeight*partialRatio(sortedA, sortedB))
	}
	return best
}

// partialRatio compares the shorter string with every equally long window of
// the longer one and keeps the best score.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	best := 0.0
	for start := 0; start+len(short) <= len(long); start++ {
		score := levenshteinRatio(string(short), string(long[start:start+len(short)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	return strutil.Similarity(a, b, metrics.NewLevenshtein()) * 100
}

func runeLen(s string) int {
	return len([]rune(s))
}
