package match

import (
	"log/slog"
	"slices"

	"animedb/internal/logging"
	"animedb/internal/textutil"
)

// DefaultMinScore is the similarity a candidate must exceed to be accepted.
const DefaultMinScore = 50

// Candidate is the part of a catalog search result the matcher compares.
type Candidate struct {
	Title string
	// Years lists every release year the catalog reports for the entry
	// (for example the "year" field and the air date year).
	Years []int
}

// Options tunes a single Best call.
type Options struct {
	// Year narrows candidates to those released that year; 0 disables.
	Year int
	// MinScore is the exclusive lower bound for acceptance. A negative value
	// accepts the top candidate unconditionally.
	MinScore float64
	Logger   *slog.Logger
}

// Best returns the index into candidates of the best match for query, its
// similarity score, and whether it was accepted.
func Best(query string, candidates []Candidate, opts Options) (int, float64, bool) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(candidates) == 0 {
		logger.Debug("no candidates to match", logging.String("query", query))
		return -1, 0, false
	}

	pool := narrowByYear(candidates, opts.Year)
	if opts.Year > 0 && len(pool) == len(candidates) {
		logger.Debug("year hint did not narrow candidates",
			logging.Int("year", opts.Year),
			logging.Int("total_candidates", len(candidates)))
	}

	bestIdx := -1
	bestScore := -1.0
	for _, idx := range pool {
		score := textutil.Ratio(query, candidates[idx].Title)
		logger.Debug("candidate scored",
			logging.Int("candidate_index", idx),
			logging.String("candidate_title", candidates[idx].Title),
			logging.Float64("score", score))
		if score > bestScore {
			bestIdx = idx
			bestScore = score
		}
	}

	if bestScore <= opts.MinScore {
		logger.Debug("best candidate below threshold",
			logging.String("query", query),
			logging.String("candidate_title", candidates[bestIdx].Title),
			logging.Float64("score", bestScore),
			logging.Float64("min_score", opts.MinScore))
		return bestIdx, bestScore, false
	}
	return bestIdx, bestScore, true
}

// narrowByYear returns the indexes of candidates released in year, or every
// index when year is unset or nothing matches.
func narrowByYear(candidates []Candidate, year int) []int {
	all := make([]int, len(candidates))
	for i := range candidates {
		all[i] = i
	}
	if year <= 0 {
		return all
	}
	var narrowed []int
	for i, c := range candidates {
		if slices.Contains(c.Years, year) {
			narrowed = append(narrowed, i)
		}
	}
	if len(narrowed) == 0 {
		return all
	}
	return narrowed
}
