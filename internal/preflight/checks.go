package preflight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"animedb/internal/library"
)

const checkTimeout = 10 * time.Second

// CheckMAL verifies that the Jikan API answers an anime lookup.
func CheckMAL(ctx context.Context, baseURL string) Result {
	const name = "MyAnimeList (Jikan)"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	return probe(ctx, name, http.MethodGet, base+"/anime/1", "")
}

// CheckAniList verifies that the AniList GraphQL endpoint answers a query.
func CheckAniList(ctx context.Context, baseURL string) Result {
	const name = "AniList"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	return probe(ctx, name, http.MethodPost, base, `{"query":"query { Media(id: 1) { id } }"}`)
}

func probe(ctx context.Context, name, method, url, body string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, method, url, strings.NewReader(body))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: checkTimeout}
	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	latency := time.Since(started).Round(time.Millisecond)
	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s)", latency)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{Name: name, Passed: true, Detail: "reachable (rate limited)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
}

// CheckLibraryRoots verifies that the configured roots yield title folders.
func CheckLibraryRoots(roots []string, skipHidden bool) Result {
	const name = "Library roots"

	entries, err := library.Scan(roots, skipHidden)
	if err != nil {
		if errors.Is(err, library.ErrNoRoots) {
			return Result{Name: name, Detail: "no roots configured (set library.roots)"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if len(entries) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%d root(s), no title folders found", len(roots))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d title folders in %d root(s)", len(entries), len(roots))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
