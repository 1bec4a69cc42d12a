package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"animedb/internal/catalog/anilist"
	"animedb/internal/logging"
	"animedb/internal/match"
	"animedb/internal/reconcile"
	"animedb/internal/record"
	"animedb/internal/title"
)

// AniList resolves records from the AniList GraphQL API.
type AniList struct {
	client anilist.Searcher
	opts   Options
	logger *slog.Logger
}

// NewAniList constructs the AniList adapter.
func NewAniList(client anilist.Searcher, opts Options) *AniList {
	return &AniList{client: client, opts: opts, logger: opts.logger("resolve.anilist")}
}

// Source implements Resolver.
func (a *AniList) Source() record.Source { return record.SourceAniList }

// Resolve implements Resolver. fallback is the MyAnimeList record for the
// same key, if any; its mal_id is tried before searching.
func (a *AniList) Resolve(ctx context.Context, key, path string, fallback *record.Record) (record.Record, Outcome, error) {
	ctx = logging.WithSource(logging.WithTitleKey(ctx, key), string(a.Source()))
	logger := logging.WithContext(ctx, a.logger)
	query, ok := normalize(logger, key)
	if !ok {
		return record.Record{}, OutcomeSkipped, nil
	}

	tried := 0
	if query.HasExplicitID() {
		tried = query.ExplicitID
		media, err := a.client.ByMALID(ctx, query.ExplicitID)
		if err == nil && media != nil {
			return a.build(*media, path, fallback), OutcomeExplicitID, nil
		}
		if stop := lookupFailed(ctx, logger, "explicit_mal_id", query.ExplicitID, err); stop != nil {
			return record.Record{}, OutcomeUnresolved, stop
		}
	}

	if fallback != nil && fallback.MALID != nil && *fallback.MALID > 0 && *fallback.MALID != tried {
		media, err := a.client.ByMALID(ctx, *fallback.MALID)
		if err == nil && media != nil {
			return a.build(*media, path, fallback), OutcomeCrossID, nil
		}
		if stop := lookupFailed(ctx, logger, "cross_mal_id", *fallback.MALID, err); stop != nil {
			return record.Record{}, OutcomeUnresolved, stop
		}
	}

	if len([]rune(query.Text)) < title.MinQueryLength {
		rec, outcome := adopt(logger, fallback, a.Source().Other(), path)
		return rec, outcome, nil
	}

	results, err := a.client.Search(ctx, query.SearchText())
	if err != nil {
		return record.Record{}, OutcomeUnresolved, searchError(a.Source(), err)
	}
	candidates := make([]match.Candidate, len(results))
	for i, media := range results {
		candidates[i] = match.Candidate{Title: title.Clean(media.Title.Romaji), Years: media.Years()}
	}
	idx, ok := pick(logger, query, candidates, a.opts.MinScore)
	if !ok {
		rec, outcome := adopt(logger, fallback, a.Source().Other(), path)
		return rec, outcome, nil
	}
	return a.build(results[idx], path, fallback), OutcomeSearch, nil
}

func (a *AniList) build(media anilist.Media, path string, fallback *record.Record) record.Record {
	rec := record.Record{
		AniListID: record.Ptr(media.ID),
		MALID:     media.IDMal,
		Duration:  media.Duration,
		Episodes:  media.Episodes,
		IsAdult:   media.IsAdult,
		Title:     title.Clean(media.Title.Romaji),
		Year:      media.StartDate.Year,
		FullPath:  path,
	}
	if len(media.Genres) > 0 {
		rec.Genres = append([]string(nil), media.Genres...)
	}
	if studios := media.StudioNames(); len(studios) > 0 {
		rec.Studios = studios
	}
	if rec.Title == "" && media.Title.English != nil {
		rec.Title = title.Clean(*media.Title.English)
	}

	var fb record.Record
	if fallback != nil {
		fb = reconcile.Adopt(*fallback, a.Source().Other(), "")
	}
	switch {
	case media.AverageScore != nil:
		rec.Score = record.Ptr(float64(*media.AverageScore))
	case fb.Score != nil:
		rec.Score = record.Ptr(*fb.Score)
	}
	if rec.Year == nil && fb.Year != nil {
		rec.Year = record.Ptr(*fb.Year)
	}
	rec.ScoreScale = record.ScoreScale
	rec.Image = a.opts.schedule(media.CoverImage.Large, fmt.Sprintf("%s-%d.jpg", record.SourceAniList, media.ID))
	return rec
}
