package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"animedb/internal/catalog"
	"animedb/internal/catalog/anilist"
	"animedb/internal/catalog/mal"
	"animedb/internal/config"
	"animedb/internal/covers"
	"animedb/internal/logging"
	"animedb/internal/lookupcache"
	"animedb/internal/record"
	"animedb/internal/resolve"
)

// Runtime is a Driver wired from configuration together with the resources
// it owns. Close releases them.
type Runtime struct {
	Driver *Driver
	Covers *covers.Pool
	cache  *lookupcache.Cache
}

// Open builds a Runtime from cfg. ctx bounds cover downloads scheduled
// through the runtime.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("enrich runtime requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	rt := &Runtime{}
	if err := rt.openCache(ctx, cfg, logger); err != nil {
		logging.WarnWithContext(logger, "lookup cache unavailable", "lookup_cache_unavailable",
			logging.String("path", cfg.Paths.CachePath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every lookup goes to the network this run"),
			logging.String(logging.FieldErrorHint, "check paths.cache_path permissions or delete the cache file"))
	}

	malClient, err := mal.New(cfg.MAL.BaseURL,
		mal.WithTransport(rt.transport(cfg, logger, "catalog.mal")),
		mal.WithSearchLimit(cfg.MAL.SearchLimit))
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("mal client: %w", err)
	}
	aniClient, err := anilist.New(cfg.AniList.BaseURL,
		anilist.WithTransport(rt.transport(cfg, logger, "catalog.anilist")),
		anilist.WithPerPage(cfg.AniList.PerPage))
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("anilist client: %w", err)
	}

	rt.Covers = covers.NewPool(ctx, cfg.Paths.ImageDir, cfg.Workflow.DownloadWorkers,
		covers.WithLogger(logger),
		covers.WithHTTPClient(&http.Client{Timeout: 3 * cfg.RequestTimeout()}))

	opts := resolve.Options{MinScore: cfg.Matching.MinScore, Covers: rt.Covers, Logger: logger}
	driver, err := New(Deps{
		MAL:          resolve.NewMAL(malClient, opts),
		AniList:      resolve.NewAniList(aniClient, opts),
		MALStore:     record.Open(cfg.MALStorePath(), record.SourceMAL, logger),
		AniListStore: record.Open(cfg.AniListStorePath(), record.SourceAniList, logger),
		Covers:       rt.Covers,
		Logger:       logger,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Driver = driver
	return rt, nil
}

// openCache opens the lookup cache unless it is disabled by an empty path or
// a zero lifetime.
func (rt *Runtime) openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Paths.CachePath == "" || cfg.CacheTTL() <= 0 {
		logger.Debug("lookup cache disabled")
		return nil
	}
	cache, err := lookupcache.Open(cfg.Paths.CachePath, cfg.CacheTTL(), logger)
	if err != nil {
		return err
	}
	if _, err := cache.Prune(ctx); err != nil {
		logger.Debug("lookup cache prune failed", logging.Error(err))
	}
	rt.cache = cache
	return nil
}

func (rt *Runtime) transport(cfg *config.Config, logger *slog.Logger, component string) *catalog.Transport {
	opts := []catalog.Option{
		catalog.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		catalog.WithRequestDelay(cfg.RequestDelay()),
		catalog.WithMaxRetries(cfg.Workflow.MaxRetries),
		catalog.WithLogger(logging.NewComponentLogger(logger, component)),
	}
	if rt.cache != nil {
		opts = append(opts, catalog.WithCache(rt.cache))
	}
	return catalog.NewTransport(opts...)
}

// Close flushes cover downloads and closes the lookup cache.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	if rt.Covers != nil {
		rt.Covers.Wait()
	}
	if rt.cache != nil {
		return rt.cache.Close()
	}
	return nil
}
