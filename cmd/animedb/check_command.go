package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animedb/internal/config"
	"animedb/internal/enrich"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var limit int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "List records with missing fields and optionally re-resolve them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !refresh {
				return listIncomplete(cmd, ctx)
			}
			return ctx.withRunLock(func(cfg *config.Config) error {
				logger, logPath, err := ctx.runLogger()
				if err != nil {
					return err
				}
				rt, err := enrich.Open(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer rt.Close() //nolint:errcheck

				_, aniStore := rt.Driver.Stores()
				items := enrich.FindIncomplete(aniStore, time.Now().Year())
				summary, runErr := rt.Driver.Refresh(cmd.Context(), enrich.Entries(items), enrich.Options{Limit: limit})
				if err := printSummary(cmd, ctx, summary, logPath, false); err != nil {
					return err
				}
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-resolve incomplete records through the catalogs")
	cmd.Flags().IntVar(&limit, "limit", 0, "Refresh at most N titles (0 means all)")
	return cmd
}

type incompleteJSON struct {
	Key     string   `json:"key"`
	Path    string   `json:"path"`
	Missing []string `json:"missing"`
}

func listIncomplete(cmd *cobra.Command, ctx *commandContext) error {
	logger, err := ctx.logger()
	if err != nil {
		return err
	}
	_, aniStore, err := ctx.openStores(logger)
	if err != nil {
		return err
	}
	items := enrich.FindIncomplete(aniStore, time.Now().Year())

	if ctx.jsonOutput() {
		payload := make([]incompleteJSON, 0, len(items))
		for _, item := range items {
			payload = append(payload, incompleteJSON{Key: item.Key, Path: item.Path, Missing: item.Missing})
		}
		return writeJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "All records are complete")
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Key, strings.Join(item.Missing, ", ")})
	}
	fmt.Fprintln(out, renderTable([]string{"Title", "Missing"}, rows, nil))
	fmt.Fprintf(out, "%d incomplete records; run `animedb check --refresh` to re-resolve them\n", len(items))
	return nil
}
