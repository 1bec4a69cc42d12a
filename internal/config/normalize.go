package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeEndpoints()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := lookupEnv(EnvDataDir); ok {
		c.Paths.DataDir = value
	}
	if value, ok := lookupEnv(EnvImageDir); ok {
		c.Paths.ImageDir = value
	}
	if value, ok := lookupEnv(EnvLibraryRoots); ok {
		c.Library.Roots = filepath.SplitList(value)
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ImageDir, err = expandPath(strings.TrimSpace(c.Paths.ImageDir)); err != nil {
		return fmt.Errorf("paths.image_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CachePath, err = expandPath(strings.TrimSpace(c.Paths.CachePath)); err != nil {
		return fmt.Errorf("paths.cache_path: %w", err)
	}
	return nil
}

// normalizeLibrary expands roots and drops blanks and duplicates. Glob
// patterns keep their meta characters; only the tilde prefix is expanded.
func (c *Config) normalizeLibrary() error {
	roots := make([]string, 0, len(c.Library.Roots))
	seen := make(map[string]struct{}, len(c.Library.Roots))
	for _, root := range c.Library.Roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		expanded, err := expandPath(root)
		if err != nil {
			return fmt.Errorf("library.roots %q: %w", root, err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Library.Roots = roots
	return nil
}

func (c *Config) normalizeEndpoints() {
	c.MAL.BaseURL = strings.TrimRight(strings.TrimSpace(c.MAL.BaseURL), "/")
	if c.MAL.BaseURL == "" {
		c.MAL.BaseURL = defaultMALBaseURL
	}
	c.AniList.BaseURL = strings.TrimRight(strings.TrimSpace(c.AniList.BaseURL), "/")
	if c.AniList.BaseURL == "" {
		c.AniList.BaseURL = defaultAniListBaseURL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
}
