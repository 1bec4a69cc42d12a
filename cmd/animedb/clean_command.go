package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"animedb/internal/config"
	"animedb/internal/enrich"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop records whose library folder no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func(cfg *config.Config) error {
				logger, err := ctx.logger()
				if err != nil {
					return err
				}
				malStore, aniStore, err := ctx.openStores(logger)
				if err != nil {
					return err
				}
				result, err := enrich.Prune(malStore, aniStore, dryRun, logger)
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"dry_run": dryRun,
						"mal":     nonNil(result.MAL),
						"anilist": nonNil(result.AniList),
					})
				}

				out := cmd.OutOrStdout()
				if result.Total() == 0 {
					fmt.Fprintln(out, "No stale records")
					return nil
				}
				verb := "Removed"
				if dryRun {
					verb = "Would remove"
				}
				for _, key := range result.MAL {
					fmt.Fprintf(out, "%s %s from %s\n", verb, key, malStore.Path())
				}
				for _, key := range result.AniList {
					fmt.Fprintf(out, "%s %s from %s\n", verb, key, aniStore.Path())
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report stale records without removing them")
	return cmd
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
