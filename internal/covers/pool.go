package covers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"animedb/internal/fileutil"
	"animedb/internal/logging"
	"animedb/internal/textutil"
)

const (
	defaultWorkers = 4
	maxCoverBytes  = 10 << 20
)

// Stats summarizes the downloads handled by a pool.
type Stats struct {
	Scheduled  int
	Downloaded int
	Skipped    int
	Failed     int
}

// Pool downloads covers with at most Workers concurrent requests.
type Pool struct {
	dir    string
	client *http.Client
	logger *slog.Logger
	ctx    context.Context

	group *errgroup.Group

	mu      sync.Mutex
	pending map[string]struct{}
	stats   Stats
}

// Option configures a Pool.
type Option func(*Pool)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pool) {
		if client != nil {
			p.client = client
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool constructs a pool writing into dir. Cancelling ctx stops downloads
// that have not started yet.
func NewPool(ctx context.Context, dir string, workers int, opts ...Option) *Pool {
	if ctx == nil {
		ctx = context.Background()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	p := &Pool{
		dir:     dir,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logging.NewNop(),
		ctx:     ctx,
		group:   &errgroup.Group{},
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "covers")
	p.group.SetLimit(workers)
	return p
}

// Dir returns the directory covers are written to.
func (p *Pool) Dir() string { return p.dir }

// Schedule queues a download of url into name under the pool directory and
// returns the destination path. An empty url or name yields an empty path.
// Files already on disk or already queued are not downloaded again; a failed
// download may be scheduled again.
func (p *Pool) Schedule(url, name string) string {
	name = textutil.SanitizeFileName(name)
	if url == "" || name == "" {
		return ""
	}
	dest := filepath.Join(p.dir, name)

	p.mu.Lock()
	if _, ok := p.pending[dest]; ok {
		p.mu.Unlock()
		return dest
	}
	p.pending[dest] = struct{}{}
	p.stats.Scheduled++
	p.mu.Unlock()

	if exists, err := fileutil.Exists(dest); err == nil && exists {
		p.record(func(s *Stats) { s.Skipped++ })
		return dest
	}

	p.group.Go(func() error {
		if err := p.download(url, dest); err != nil {
			p.mu.Lock()
			p.stats.Failed++
			delete(p.pending, dest)
			p.mu.Unlock()
			logging.WarnWithContext(p.logger, "cover download failed", "cover_download_failed",
				logging.String("url", url),
				logging.String("path", dest),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record keeps the image path; the file is fetched on a later run"),
			)
			return nil
		}
		p.record(func(s *Stats) { s.Downloaded++ })
		p.logger.Debug("cover downloaded", logging.String("path", dest))
		return nil
	})
	return dest
}

// Wait blocks until every scheduled download has finished and returns the
// statistics since the previous Wait.
func (p *Pool) Wait() Stats {
	_ = p.group.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	p.stats = Stats{}
	return stats
}

func (p *Pool) record(update func(*Stats)) {
	p.mu.Lock()
	update(&p.stats)
	p.mu.Unlock()
}

func (p *Pool) download(url, dest string) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch cover: status %d", resp.StatusCode)
	}
	return fileutil.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, io.LimitReader(resp.Body, maxCoverBytes))
		return err
	})
}
