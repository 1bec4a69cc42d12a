package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"animedb/internal/logging"
	"animedb/internal/match"
	"animedb/internal/reconcile"
	"animedb/internal/record"
	"animedb/internal/title"
)

// Outcome names the path that produced (or failed to produce) a record.
type Outcome string

const (
	OutcomeExplicitID Outcome = "explicit_id"
	OutcomeSearch     Outcome = "search"
	OutcomeCrossID    Outcome = "cross_id"
	OutcomeFallback   Outcome = "fallback"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeSkipped    Outcome = "skipped"
)

// Resolved reports whether the outcome carries a record worth storing.
func (o Outcome) Resolved() bool {
	switch o {
	case OutcomeExplicitID, OutcomeSearch, OutcomeCrossID, OutcomeFallback:
		return true
	default:
		return false
	}
}

// Resolver produces records for one catalog source.
type Resolver interface {
	Source() record.Source
	Resolve(ctx context.Context, key, path string, fallback *record.Record) (record.Record, Outcome, error)
}

// CoverScheduler queues a cover download and returns its local path.
type CoverScheduler interface {
	Schedule(url, name string) string
}

// Options carries the collaborators shared by both adapters.
type Options struct {
	// MinScore is passed to the matcher; see match.Options.
	MinScore float64
	// Covers receives cover downloads; nil leaves record images empty.
	Covers CoverScheduler
	Logger *slog.Logger
}

func (o Options) logger(component string) *slog.Logger {
	logger := o.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return logging.NewComponentLogger(logger, component)
}

func (o Options) schedule(url, name string) string {
	if o.Covers == nil {
		return ""
	}
	return o.Covers.Schedule(url, name)
}

// normalize wraps title.Normalize and logs short queries.
func normalize(logger *slog.Logger, key string) (title.Query, bool) {
	query, err := title.Normalize(key)
	if errors.Is(err, title.ErrQueryTooShort) {
		logger.Info("query too short, skipping",
			logging.String("query", query.Text),
			logging.Int("min_length", title.MinQueryLength))
		return query, false
	}
	return query, true
}

// pick runs the matcher over titles and logs the decision.
func pick(logger *slog.Logger, query title.Query, candidates []match.Candidate, minScore float64) (int, bool) {
	idx, score, ok := match.Best(query.Text, candidates, match.Options{
		Year:     query.Year,
		MinScore: minScore,
		Logger:   logger,
	})
	result, reason := "rejected", "best candidate at or below min score"
	if len(candidates) == 0 {
		reason = "no candidates"
	} else if ok {
		result, reason = "accepted", "best candidate above min score"
	}
	attrs := logging.DecisionAttrs("title_match", result, reason)
	attrs = append(attrs,
		logging.String("query", query.Text),
		logging.Int("candidates", len(candidates)),
		logging.Float64("score", score),
		logging.Float64("min_score", minScore))
	if idx >= 0 {
		attrs = append(attrs, logging.String("candidate_title", candidates[idx].Title))
	}
	logger.Info("title match decision", logging.Args(attrs...)...)
	return idx, ok
}

// adopt returns the fallback outcome, or unresolved when there is none.
func adopt(logger *slog.Logger, fallback *record.Record, from record.Source, path string) (record.Record, Outcome) {
	if fallback == nil || fallback.IsEmpty() {
		logger.Info("no match and no fallback record")
		return record.Record{}, OutcomeUnresolved
	}
	logger.Info("no match, adopting fallback record", logging.String("fallback_source", string(from)))
	return reconcile.Adopt(*fallback, from, path), OutcomeFallback
}

// lookupFailed logs a failed direct lookup that falls through to search. A
// cancelled context is returned so the caller can stop.
func lookupFailed(ctx context.Context, logger *slog.Logger, kind string, id int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	logger.Info("id lookup failed, falling back to search",
		logging.String("lookup", kind),
		logging.Int("id", id),
		logging.Error(err))
	return nil
}

func searchError(source record.Source, err error) error {
	return fmt.Errorf("%s search: %w", source, err)
}
