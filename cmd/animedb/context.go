package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"animedb/internal/config"
	"animedb/internal/enrich"
	"animedb/internal/logging"
	"animedb/internal/preflight"
	"animedb/internal/record"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verboseFlag != nil && *c.verboseFlag {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger builds the shared logger for read-mostly commands.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// runLogger builds a logger that also writes a per-run log file.
func (c *commandContext) runLogger() (*slog.Logger, string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	logger, path, err := logging.NewForRun(cfg, time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("init logger: %w", err)
	}
	return logger, path, nil
}

func (c *commandContext) openStores(logger *slog.Logger) (*record.Store, *record.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return record.Open(cfg.MALStorePath(), record.SourceMAL, logger),
		record.Open(cfg.AniListStorePath(), record.SourceAniList, logger),
		nil
}

// withRunLock checks the writable directories and holds the run lock while
// fn executes.
func (c *commandContext) withRunLock(fn func(cfg *config.Config) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if failed := preflight.Failed(preflight.Directories(cfg)); len(failed) > 0 {
		return fmt.Errorf("%s: %s", failed[0].Name, failed[0].Detail)
	}
	lock, err := enrich.AcquireLock(cfg.LockPath())
	if err != nil {
		if errors.Is(err, enrich.ErrLocked) {
			return fmt.Errorf("%w; wait for it to finish or stop `animedb watch`", err)
		}
		return err
	}
	defer lock.Release() //nolint:errcheck
	return fn(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
