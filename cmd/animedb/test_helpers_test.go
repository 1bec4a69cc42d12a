package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"animedb/internal/config"
	"animedb/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	if err := os.MkdirAll(cfg.Library.Roots[0], 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "animedb", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	testsupport.WriteFile(t, path, data)
}

// newCatalogServer serves one Jikan search hit and its AniList counterpart.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/anime", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[{"mal_id":1,"title":"Cowboy Bebop","year":1998,"score":8.75,
			"episodes":26,"rating":"R - 17+ (violence & profanity)","type":"TV",
			"genres":[{"mal_id":1,"name":"Action"}],"studios":[{"mal_id":14,"name":"Sunrise"}],
			"images":{"jpg":{"large_image_url":"%s/img/mal-1.jpg"}}}]}`, srv.URL)
	})
	mux.HandleFunc("/anime/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"mal_id":1,"title":"Cowboy Bebop"}}`))
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string `json:"query"`
			Variables struct {
				IDMal *int `json:"idMal"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Variables.IDMal == nil || *req.Variables.IDMal != 1 {
			_, _ = w.Write([]byte(`{"data":{"Page":{"media":[]}}}`))
			return
		}
		fmt.Fprintf(w, `{"data":{"Page":{"media":[{"id":1,"idMal":1,"isAdult":false,
			"title":{"romaji":"Cowboy Bebop"},"startDate":{"year":1998},
			"genres":["Action","Sci-Fi"],"episodes":26,"duration":24,"averageScore":86,
			"coverImage":{"large":"%s/img/anilist-1.jpg"},
			"studios":{"nodes":[{"name":"Sunrise"}]}}]}}}`, srv.URL)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
