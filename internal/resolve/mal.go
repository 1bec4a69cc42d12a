package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"animedb/internal/catalog/mal"
	"animedb/internal/logging"
	"animedb/internal/match"
	"animedb/internal/record"
	"animedb/internal/title"
)

// adultRating is the first token of the MyAnimeList rating for adult titles.
const adultRating = "Rx"

// MAL resolves records from MyAnimeList through the Jikan API.
type MAL struct {
	client mal.Searcher
	opts   Options
	logger *slog.Logger
}

// NewMAL constructs the MyAnimeList adapter.
func NewMAL(client mal.Searcher, opts Options) *MAL {
	return &MAL{client: client, opts: opts, logger: opts.logger("resolve.mal")}
}

// Source implements Resolver.
func (m *MAL) Source() record.Source { return record.SourceMAL }

// Resolve implements Resolver.
func (m *MAL) Resolve(ctx context.Context, key, path string, fallback *record.Record) (record.Record, Outcome, error) {
	ctx = logging.WithSource(logging.WithTitleKey(ctx, key), string(m.Source()))
	logger := logging.WithContext(ctx, m.logger)
	query, ok := normalize(logger, key)
	if !ok {
		return record.Record{}, OutcomeSkipped, nil
	}

	if query.HasExplicitID() {
		anime, err := m.client.GetAnime(ctx, query.ExplicitID)
		if err == nil && anime != nil {
			return m.build(*anime, path, fallback), OutcomeExplicitID, nil
		}
		if stop := lookupFailed(ctx, logger, "mal_id", query.ExplicitID, err); stop != nil {
			return record.Record{}, OutcomeUnresolved, stop
		}
		if len([]rune(query.Text)) < title.MinQueryLength {
			return record.Record{}, OutcomeSkipped, nil
		}
	}

	results, err := m.client.Search(ctx, query.SearchText())
	if err != nil {
		return record.Record{}, OutcomeUnresolved, searchError(m.Source(), err)
	}
	candidates := make([]match.Candidate, len(results))
	for i, anime := range results {
		candidates[i] = match.Candidate{Title: title.Clean(anime.Title), Years: anime.Years()}
	}
	idx, ok := pick(logger, query, candidates, m.opts.MinScore)
	if !ok {
		rec, outcome := adopt(logger, fallback, m.Source().Other(), path)
		return rec, outcome, nil
	}
	return m.build(results[idx], path, fallback), OutcomeSearch, nil
}

func (m *MAL) build(anime mal.Anime, path string, fallback *record.Record) record.Record {
	rec := record.Record{
		MALID:    record.Ptr(anime.MalID),
		Episodes: anime.Episodes,
		Genres:   names(anime.Genres),
		Studios:  names(anime.Studios),
		Title:    title.Clean(anime.Title),
		Type:     anime.Type,
		Aired:    anime.Aired.From,
		FullPath: path,
	}
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(anime.Title)
	}
	if anime.Rating != nil {
		if fields := strings.Fields(*anime.Rating); len(fields) > 0 {
			rec.Rating = record.Ptr(fields[0])
			rec.IsAdult = record.Ptr(fields[0] == adultRating)
		}
	}
	if anime.Score != nil {
		rec.Score = record.Ptr(*anime.Score)
		rec.ScoreScale = record.SourceMAL.LegacyScale()
		rec.NormalizeScore(rec.ScoreScale)
	}
	switch {
	case anime.Year != nil:
		rec.Year = record.Ptr(*anime.Year)
	case anime.AiredYear() != nil:
		rec.Year = record.Ptr(*anime.AiredYear())
	case fallback != nil && fallback.Year != nil:
		rec.Year = record.Ptr(*fallback.Year)
	}
	rec.Image = m.opts.schedule(anime.CoverURL(), fmt.Sprintf("%s-%d.jpg", record.SourceMAL, anime.MalID))
	return rec
}

func names(items []mal.Named) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
