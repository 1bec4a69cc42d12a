package preflight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animedb/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMAL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/anime/1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"mal_id":1}}`))
	}))
	defer srv.Close()

	if result := CheckMAL(context.Background(), srv.URL); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckMAL(context.Background(), srv.URL+"/v4"); result.Passed {
		t.Fatal("expected failure on 404")
	}
	if result := CheckMAL(context.Background(), " "); result.Passed {
		t.Fatal("expected failure for empty url")
	}
}

func TestCheckAniListPostsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Method != http.MethodPost || !strings.Contains(string(body), "Media(id: 1)") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"Media":{"id":1}}}`))
	}))
	defer srv.Close()

	if result := CheckAniList(context.Background(), srv.URL); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckAniListRateLimitedStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if result := CheckAniList(context.Background(), srv.URL); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLibraryRoots(t *testing.T) {
	root := t.TempDir()
	if result := CheckLibraryRoots([]string{root}, true); result.Passed {
		t.Fatal("expected failure for empty root")
	}
	if err := os.Mkdir(filepath.Join(root, "Monster"), 0o755); err != nil {
		t.Fatal(err)
	}
	if result := CheckLibraryRoots([]string{root}, true); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckLibraryRoots(nil, true); result.Passed {
		t.Fatal("expected failure without roots")
	}
}

func TestRunAllOffline(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ImageDir = filepath.Join(base, "images")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CachePath = filepath.Join(base, "cache", "lookups.db")
	cfg.Library.Roots = []string{base}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg, true)
	if len(results) != 4 {
		t.Fatalf("expected 4 offline results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
