package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"animedb/internal/enrich"
	"animedb/internal/library"
	"animedb/internal/logging"
)

const defaultDebounce = 10 * time.Second

// SyncFunc runs one enrichment pass.
type SyncFunc func(ctx context.Context) error

// Options configures a Daemon.
type Options struct {
	Roots      []string
	SkipHidden bool
	LockPath   string
	Debounce   time.Duration
	Logger     *slog.Logger
}

// Daemon watches library roots and runs a sync pass after changes settle.
type Daemon struct {
	opts   Options
	sync   SyncFunc
	logger *slog.Logger

	mu      sync.Mutex
	lock    *enrich.Lock
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}

	running atomic.Bool
	passes  atomic.Int64
}

// New constructs a daemon that calls sync for every pass.
func New(opts Options, sync SyncFunc) (*Daemon, error) {
	if sync == nil {
		return nil, errors.New("daemon requires a sync function")
	}
	if len(opts.Roots) == 0 {
		return nil, library.ErrNoRoots
	}
	if strings.TrimSpace(opts.LockPath) == "" {
		return nil, errors.New("daemon requires a lock path")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{
		opts:   opts,
		sync:   sync,
		logger: logging.NewComponentLogger(logger, "daemon"),
	}, nil
}

// Start acquires the run lock, runs the initial pass, and begins watching.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	lock, err := enrich.AcquireLock(d.opts.LockPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = lock.Release()
		return fmt.Errorf("create watcher: %w", err)
	}
	dirs, err := library.Dirs(d.opts.Roots)
	if err != nil {
		_ = watcher.Close()
		_ = lock.Release()
		return err
	}
	watched := 0
	for _, dir := range dirs {
		if addErr := watcher.Add(dir); addErr != nil {
			logging.WarnWithContext(d.logger, "cannot watch library root", "watch_add_failed",
				logging.String("root", dir),
				logging.Error(addErr),
				logging.String(logging.FieldImpact, "changes under this root are picked up by the next manual sync"))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = watcher.Close()
		_ = lock.Release()
		return fmt.Errorf("no library root could be watched: %w", library.ErrNoRoots)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.lock = lock
	d.watcher = watcher
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)

	d.logger.Info("animedb watch started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Int("roots", watched),
		logging.Duration("debounce", d.opts.Debounce),
		logging.String("lock", lock.Path()))

	go d.loop(runCtx, watcher, d.done)
	return nil
}

// Stop ends watching, waits for an in-flight pass, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	d.cancel()
	<-d.done
	_ = d.watcher.Close()
	if err := d.lock.Release(); err != nil {
		d.logger.Warn("failed to release run lock", logging.Error(err))
	}
	d.cancel = nil
	d.watcher = nil
	d.lock = nil
	d.running.Store(false)
	d.logger.Info("animedb watch stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Running reports whether the daemon is watching.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Passes returns the number of completed sync passes.
func (d *Daemon) Passes() int64 {
	return d.passes.Load()
}

func (d *Daemon) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)

	d.runPass(ctx, "startup")

	timer := time.NewTimer(d.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !d.relevant(event) {
				continue
			}
			d.logger.Debug("library change detected",
				logging.String("path", event.Name),
				logging.String("op", event.Op.String()))
			timer.Reset(d.opts.Debounce)
		case <-timer.C:
			d.runPass(ctx, "change")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(d.logger, "library watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some library changes may be missed until the next pass"))
		}
	}
}

func (d *Daemon) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	if d.opts.SkipHidden && strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return true
}

func (d *Daemon) runPass(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	d.logger.Info("sync pass triggered", logging.String("trigger", trigger))
	if err := d.sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.ErrorWithContext(d.logger, "sync pass failed", "daemon_sync_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "see the preceding log lines for the failing title"))
	}
	d.passes.Add(1)
}
