package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"animedb/internal/logging"
)

const (
	defaultTimeout     = 20 * time.Second
	defaultBaseBackoff = time.Second
	defaultMaxBackoff  = 30 * time.Second
	maxBodyBytes       = 8 << 20
	userAgent          = "animedb/1.0"
)

// Cache stores raw response bodies by request key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, body []byte) error
}

// Transport executes catalog requests with pacing, retries, and caching.
type Transport struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	cache       Cache
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	logger      *slog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithRequestDelay spaces consecutive requests at least d apart. Zero
// disables pacing.
func WithRequestDelay(d time.Duration) Option {
	return func(t *Transport) {
		if d <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		t.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(t *Transport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithBackoff sets the first retry delay and the cap for later ones.
func WithBackoff(base, max time.Duration) Option {
	return func(t *Transport) {
		if base > 0 {
			t.baseBackoff = base
		}
		if max > 0 {
			t.maxBackoff = max
		}
	}
}

// WithCache attaches a response cache.
func WithCache(cache Cache) Option {
	return func(t *Transport) {
		t.cache = cache
	}
}

// WithLogger sets the logger used for retry and cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransport builds a Transport. Without options requests are paced 500ms
// apart and retried up to three times.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		maxRetries:  3,
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RequestBuilder creates a fresh request for each attempt.
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Do executes the request built by build and returns the response body. When
// cacheKey is non-empty a cached body is returned without a request and a
// successful body is stored under that key.
func (t *Transport) Do(ctx context.Context, cacheKey string, build RequestBuilder) ([]byte, error) {
	if cacheKey != "" && t.cache != nil {
		if body, ok := t.cache.Get(ctx, cacheKey); ok {
			t.logger.Debug("catalog cache hit", logging.String("cache_key", cacheKey))
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			wait := t.backoff(attempt, lastErr)
			t.logger.Debug("retrying catalog request",
				logging.Int("attempt", attempt),
				logging.Duration("wait", wait),
				logging.Error(lastErr))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, err
			}
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}

		body, err := t.once(ctx, build)
		if err == nil {
			if cacheKey != "" && t.cache != nil {
				if cacheErr := t.cache.Put(ctx, cacheKey, body); cacheErr != nil {
					logging.WarnWithContext(t.logger, "catalog cache write failed", "lookup_cache_write_failed",
						logging.String("cache_key", cacheKey),
						logging.Error(cacheErr),
						logging.String(logging.FieldImpact, "the same lookup will hit the network next run"))
				}
			}
			return body, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (t *Transport) once(ctx context.Context, build RequestBuilder) ([]byte, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response (latency=%v): %w", latency, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retryAfterError{
			HTTPError:  &HTTPError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Body: body},
			retryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return body, nil
}

// retryAfterError keeps the server supplied delay next to the HTTPError.
type retryAfterError struct {
	*HTTPError
	retryAfter time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.HTTPError }

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "eof")
}

func (t *Transport) backoff(attempt int, lastErr error) time.Duration {
	var ra *retryAfterError
	if errors.As(lastErr, &ra) && ra.retryAfter > 0 {
		return min(ra.retryAfter, t.maxBackoff)
	}
	wait := t.baseBackoff << (attempt - 1)
	if wait <= 0 || wait > t.maxBackoff {
		wait = t.maxBackoff
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ParseRetryAfter parses a Retry-After header given in seconds or as an HTTP
// date. It returns 0 when the value is missing or invalid.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
