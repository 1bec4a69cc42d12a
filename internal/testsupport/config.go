package testsupport

import (
	"path/filepath"
	"testing"

	"animedb/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// A "library" directory under the temp root is the only library root unless
// WithLibraryRoots replaces it. Catalog requests are not paced.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ImageDir = filepath.Join(base, "data", "images")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CachePath = filepath.Join(base, "cache", "lookups.db")
	cfgVal.Library.Roots = []string{filepath.Join(base, "library")}
	cfgVal.Workflow.RequestDelayMS = 0
	cfgVal.Workflow.MaxRetries = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLibraryRoots overrides the library roots on the test config.
func WithLibraryRoots(roots ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.Roots = roots
	}
}

// WithCatalogURL points both catalog clients at baseURL, typically an
// httptest server. AniList requests go to baseURL + "/graphql".
func WithCatalogURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MAL.BaseURL = baseURL
		b.cfg.AniList.BaseURL = baseURL + "/graphql"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
