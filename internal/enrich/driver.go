package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"animedb/internal/covers"
	"animedb/internal/library"
	"animedb/internal/logging"
	"animedb/internal/reconcile"
	"animedb/internal/record"
	"animedb/internal/resolve"
)

// Deps holds the collaborators of a Driver.
type Deps struct {
	MAL          resolve.Resolver
	AniList      resolve.Resolver
	MALStore     *record.Store
	AniListStore *record.Store
	// Covers is flushed at the end of every pass; nil when covers are disabled.
	Covers *covers.Pool
	Logger *slog.Logger
}

// Options tunes a sync pass.
type Options struct {
	// Limit caps the number of titles processed; 0 means no limit.
	Limit int
	// DryRun lists the titles that would be processed without resolving them.
	DryRun bool
}

// TitleResult is the outcome of one title.
type TitleResult struct {
	Key     string
	MAL     resolve.Outcome
	AniList resolve.Outcome
	Filled  int
	Err     error
}

// Summary reports what a pass did.
type Summary struct {
	RunID     string
	Found     int
	Pending   int
	Processed int
	Failed    int
	Results   []TitleResult
	Gaps      reconcile.Report
	Covers    covers.Stats
	Duration  time.Duration
}

// Driver runs enrichment passes over the record stores.
type Driver struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// New validates deps and constructs a Driver.
func New(deps Deps) (*Driver, error) {
	if deps.MAL == nil || deps.AniList == nil {
		return nil, errors.New("enrich driver requires both resolvers")
	}
	if deps.MALStore == nil || deps.AniListStore == nil {
		return nil, errors.New("enrich driver requires both record stores")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Driver{
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "enrich"),
		now:    time.Now,
	}, nil
}

// Pending returns the entries missing from at least one store, in order.
func (d *Driver) Pending(entries []library.Entry) []library.Entry {
	var pending []library.Entry
	for _, entry := range entries {
		if !d.deps.MALStore.Has(entry.Key) || !d.deps.AniListStore.Has(entry.Key) {
			pending = append(pending, entry)
		}
	}
	return pending
}

// Sync resolves every pending entry. Cancelling ctx stops the pass between
// titles; the stores already hold every finished title.
func (d *Driver) Sync(ctx context.Context, entries []library.Entry, opts Options) (Summary, error) {
	pending := d.Pending(entries)
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}
	summary, err := d.run(ctx, "sync", pending, opts.DryRun)
	summary.Found = len(entries)
	return summary, err
}

// Refresh re-resolves the given entries even when both stores hold them.
// Records that fail to resolve again keep their previous values.
func (d *Driver) Refresh(ctx context.Context, entries []library.Entry, opts Options) (Summary, error) {
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	summary, err := d.run(ctx, "refresh", entries, opts.DryRun)
	summary.Found = len(entries)
	return summary, err
}

func (d *Driver) run(ctx context.Context, phase string, pending []library.Entry, dryRun bool) (Summary, error) {
	started := d.now()
	summary := Summary{RunID: uuid.NewString(), Pending: len(pending)}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, d.logger)

	logger.Info("enrichment pass starting",
		logging.String("phase", phase),
		logging.Int("pending", len(pending)),
		logging.Bool("dry_run", dryRun))
	if len(pending) == 0 || dryRun {
		for _, entry := range pending {
			summary.Results = append(summary.Results, TitleResult{Key: entry.Key})
		}
		summary.Duration = d.now().Sub(started)
		return summary, nil
	}

	sampler := logging.NewProgressSampler(10)
	var runErr error
	for idx, entry := range pending {
		if err := ctx.Err(); err != nil {
			logging.WarnWithContext(logger, "enrichment pass interrupted", "enrich_interrupted",
				logging.Int("processed", summary.Processed),
				logging.Int("remaining", len(pending)-idx),
				logging.String(logging.FieldImpact, "remaining titles are picked up by the next run"),
				logging.String(logging.FieldErrorHint, "rerun animedb sync to continue"))
			runErr = err
			break
		}

		result := d.processTitle(ctx, entry)
		summary.Results = append(summary.Results, result)
		summary.Processed++
		if result.Err != nil {
			summary.Failed++
		}
		if sampler.ShouldLog(idx+1, len(pending), phase) {
			logger.Info("enrichment progress",
				logging.Int("done", idx+1),
				logging.Int("total", len(pending)),
				logging.Int("failed", summary.Failed))
		}
		if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
			runErr = result.Err
			break
		}
	}

	summary.Gaps = reconcile.FillTheGaps(d.deps.AniListStore, d.deps.MALStore)
	if err := d.save(); err != nil && runErr == nil {
		runErr = err
	}
	if d.deps.Covers != nil {
		summary.Covers = d.deps.Covers.Wait()
	}
	summary.Duration = d.now().Sub(started)

	logger.Info("enrichment pass finished",
		logging.String("phase", phase),
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("gaps_filled", summary.Gaps.FieldsFilled()),
		logging.Int("covers_downloaded", summary.Covers.Downloaded),
		logging.Int("covers_failed", summary.Covers.Failed),
		logging.Duration("duration", summary.Duration))
	return summary, runErr
}

// processTitle resolves one entry against both sources, fills gaps between
// the two records, and saves both stores.
func (d *Driver) processTitle(ctx context.Context, entry library.Entry) TitleResult {
	ctx = logging.WithTitleKey(ctx, entry.Key)
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("resolving title", logging.String("path", entry.Path))

	result := TitleResult{Key: entry.Key}
	var errs []error

	var malFallback *record.Record
	if rec, ok := d.deps.AniListStore.Get(entry.Key); ok {
		malFallback = &rec
	}
	malOutcome, malErr := d.resolveInto(ctx, d.deps.MAL, d.deps.MALStore, entry, malFallback)
	result.MAL = malOutcome
	if malErr != nil {
		errs = append(errs, malErr)
	}

	var fallback *record.Record
	if rec, ok := d.deps.MALStore.Get(entry.Key); ok {
		fallback = &rec
	}
	aniOutcome, err := d.resolveInto(ctx, d.deps.AniList, d.deps.AniListStore, entry, fallback)
	result.AniList = aniOutcome
	if err != nil {
		errs = append(errs, err)
	}
	if malErr == nil && !malOutcome.Resolved() && aniOutcome.Resolved() {
		if d.adoptInto(d.deps.MALStore, d.deps.AniListStore, entry) {
			result.MAL = resolve.OutcomeFallback
			logger.Info("adopted AniList record for MyAnimeList",
				logging.Args(logging.DecisionAttrs("fallback_adoption", "adopted", "no MyAnimeList match")...)...)
		}
	}

	for _, change := range reconcile.FillKey(d.deps.AniListStore, d.deps.MALStore, entry.Key) {
		result.Filled += len(change.Fields)
		logger.Debug("filled record gaps",
			logging.String("into", string(change.Into)),
			logging.Strings("fields", change.Fields))
	}

	if err := d.save(); err != nil {
		errs = append(errs, err)
	}
	result.Err = errors.Join(errs...)

	logger.Info("title resolved",
		logging.String("mal_outcome", string(result.MAL)),
		logging.String("anilist_outcome", string(result.AniList)),
		logging.Int("fields_filled", result.Filled))
	return result
}

func (d *Driver) resolveInto(ctx context.Context, resolver resolve.Resolver, store *record.Store, entry library.Entry, fallback *record.Record) (resolve.Outcome, error) {
	rec, outcome, err := resolver.Resolve(ctx, entry.Key, entry.Path, fallback)
	if err != nil {
		logger := logging.WithContext(logging.WithSource(ctx, string(resolver.Source())), d.logger)
		logging.WarnWithContext(logger, "title lookup failed", "resolve_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "title stays untracked for this source"),
			logging.String(logging.FieldErrorHint, "the next sync retries it"))
		return outcome, fmt.Errorf("%s: %w", resolver.Source(), err)
	}
	if !outcome.Resolved() {
		return outcome, nil
	}
	if existing, ok := store.Get(entry.Key); ok && outcome == resolve.OutcomeFallback {
		// An adopted copy only fills gaps in a record the source already produced.
		existing.FillFrom(rec)
		rec = existing
	}
	store.Put(entry.Key, rec)
	return outcome, nil
}

// adoptInto copies the key's record from src into dst when dst has none,
// the same adoption an adapter applies to its fallback record.
func (d *Driver) adoptInto(dst, src *record.Store, entry library.Entry) bool {
	if dst.Has(entry.Key) {
		return false
	}
	rec, ok := src.Get(entry.Key)
	if !ok || rec.IsEmpty() {
		return false
	}
	dst.Put(entry.Key, reconcile.Adopt(rec, src.Source(), entry.Path))
	return true
}

func (d *Driver) save() error {
	return saveStores(d.logger, d.deps.MALStore, d.deps.AniListStore)
}

// Stores returns the MyAnimeList and AniList stores.
func (d *Driver) Stores() (*record.Store, *record.Store) {
	return d.deps.MALStore, d.deps.AniListStore
}

func saveStores(logger *slog.Logger, stores ...*record.Store) error {
	var errs []error
	for _, store := range stores {
		if err := store.Save(); err != nil {
			logging.ErrorWithContext(logger, "record store save failed", "store_save_failed",
				logging.String("path", store.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions of the data directory"))
			errs = append(errs, fmt.Errorf("save %s store: %w", store.Source(), err))
		}
	}
	return errors.Join(errs...)
}
