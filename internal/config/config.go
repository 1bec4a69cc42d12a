package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data, image, log, and cache locations.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	ImageDir  string `toml:"image_dir"`
	LogDir    string `toml:"log_dir"`
	CachePath string `toml:"cache_path"`
}

// Library describes where the anime folders live.
type Library struct {
	Roots      []string `toml:"roots"`
	SkipHidden bool     `toml:"skip_hidden"`
}

// MAL contains configuration for the Jikan (MyAnimeList) REST API.
type MAL struct {
	BaseURL     string `toml:"base_url"`
	SearchLimit int    `toml:"search_limit"`
}

// AniList contains configuration for the AniList GraphQL API.
type AniList struct {
	BaseURL string `toml:"base_url"`
	PerPage int    `toml:"per_page"`
}

// Matching contains fuzzy title matching thresholds.
type Matching struct {
	MinScore float64 `toml:"min_score"`
}

// Workflow contains request pacing, retry, and worker settings.
type Workflow struct {
	RequestDelayMS        int `toml:"request_delay_ms"`
	DownloadWorkers       int `toml:"download_workers"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
	MaxRetries            int `toml:"max_retries"`
	CacheTTLHours         int `toml:"cache_ttl_hours"`
	WatchDebounceSeconds  int `toml:"watch_debounce_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for animedb.
//
// Configuration sections by subsystem:
//   - Paths: record stores, cover images, logs, lookup cache
//   - Library: library roots (directories or glob patterns)
//   - MAL / AniList: catalog endpoints and page sizes
//   - Matching: fuzzy match acceptance threshold
//   - Workflow: pacing, retries, download workers
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Library  Library  `toml:"library"`
	MAL      MAL      `toml:"mal"`
	AniList  AniList  `toml:"anilist"`
	Matching Matching `toml:"matching"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

const (
	malStoreName     = "maldb.json"
	anilistStoreName = "anilist.json"
	lockFileName     = "animedb.lock"
)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv reads .env files next to the config file and in the working
// directory. Variables already present in the environment are kept.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	var files []string
	seen := map[string]struct{}{}
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			files = append(files, abs)
		}
	}
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// EnsureDirectories creates the data, image, log, and cache directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.ImageDir, c.Paths.LogDir}
	if c.Paths.CachePath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CachePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MALStorePath returns the MyAnimeList record store location.
func (c *Config) MALStorePath() string {
	return filepath.Join(c.Paths.DataDir, malStoreName)
}

// AniListStorePath returns the AniList record store location.
func (c *Config) AniListStorePath() string {
	return filepath.Join(c.Paths.DataDir, anilistStoreName)
}

// LockPath returns the run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, lockFileName)
}

// RequestDelay is the minimum spacing between two requests to one catalog.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Workflow.RequestDelayMS) * time.Millisecond
}

// RequestTimeout bounds a single catalog HTTP request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Workflow.RequestTimeoutSeconds) * time.Second
}

// CacheTTL is how long lookup responses stay valid. Zero disables the cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Workflow.CacheTTLHours) * time.Hour
}

// WatchDebounce is the quiet period the watch command waits before syncing.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Workflow.WatchDebounceSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
