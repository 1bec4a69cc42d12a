package lookupcache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"animedb/internal/catalog"
	"animedb/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// Cache is a SQLite backed response cache.
type Cache struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

var _ catalog.Cache = (*Cache)(nil)

// Open creates or opens the cache database at path.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if path == "" {
		return nil, errors.New("lookup cache path required")
	}
	if ttl <= 0 {
		return nil, errors.New("lookup cache ttl must be positive")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Cache{
		db:     db,
		path:   path,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "lookupcache"),
	}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the body stored for key if it has not expired. Read errors are
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	cutoff := c.now().Add(-c.ttl).Unix()
	var body []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT body FROM lookups WHERE key = ? AND fetched_at >= ?", key, cutoff,
	).Scan(&body)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Debug("lookup cache read failed", logging.String("cache_key", key), logging.Error(err))
		}
		return nil, false
	}
	return body, true
}

// Put stores body under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, body []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO lookups (key, body, fetched_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store lookup %q: %w", key, err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, "DELETE FROM lookups WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune lookups: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune lookups: %w", err)
	}
	if removed > 0 {
		c.logger.Debug("pruned expired lookups", logging.Int64("removed", removed))
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM lookups").Scan(&n); err != nil {
		return 0, fmt.Errorf("count lookups: %w", err)
	}
	return n, nil
}
