package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"animedb/internal/daemon"
	"animedb/internal/enrich"
	"animedb/internal/library"
	"animedb/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the library roots and sync when folders appear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, logPath, err := ctx.runLogger()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			rt, err := enrich.Open(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close() //nolint:errcheck

			syncPass := func(passCtx context.Context) error {
				entries, err := library.Scan(cfg.Library.Roots, cfg.Library.SkipHidden)
				if err != nil {
					return fmt.Errorf("scan library: %w", err)
				}
				summary, err := rt.Driver.Sync(passCtx, entries, enrich.Options{})
				if summary.Failed > 0 {
					logging.WarnWithContext(logger, "sync pass had failures", "sync_pass_failures",
						logging.Int("failed", summary.Failed),
						logging.String(logging.FieldImpact, "failed titles are retried on the next pass"))
				}
				return err
			}

			d, err := daemon.New(daemon.Options{
				Roots:      cfg.Library.Roots,
				SkipHidden: cfg.Library.SkipHidden,
				LockPath:   cfg.LockPath(),
				Debounce:   cfg.WatchDebounce(),
				Logger:     logger,
			}, syncPass)
			if err != nil {
				return err
			}
			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d library roots (log %s); press Ctrl+C to stop\n", len(cfg.Library.Roots), logPath)

			<-runCtx.Done()
			d.Stop()
			logger.Info("watch stopped", logging.Int64("passes", d.Passes()))
			return nil
		},
	}
}
