package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"animedb/internal/config"
	"animedb/internal/enrich"
	"animedb/internal/library"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Resolve library folders missing from the record stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}
			return ctx.withRunLock(func(cfg *config.Config) error {
				logger, logPath, err := ctx.runLogger()
				if err != nil {
					return err
				}
				entries, err := library.Scan(cfg.Library.Roots, cfg.Library.SkipHidden)
				if err != nil {
					return fmt.Errorf("scan library: %w", err)
				}
				rt, err := enrich.Open(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer rt.Close() //nolint:errcheck

				summary, runErr := rt.Driver.Sync(cmd.Context(), entries, enrich.Options{Limit: limit, DryRun: dryRun})
				if err := printSummary(cmd, ctx, summary, logPath, dryRun); err != nil {
					return err
				}
				return runErr
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most N titles (0 means all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending titles without resolving them")
	return cmd
}

type titleResultJSON struct {
	Key     string `json:"key"`
	MAL     string `json:"mal,omitempty"`
	AniList string `json:"anilist,omitempty"`
	Filled  int    `json:"filled"`
	Error   string `json:"error,omitempty"`
}

type summaryJSON struct {
	RunID      string            `json:"run_id"`
	DryRun     bool              `json:"dry_run"`
	Found      int               `json:"found"`
	Pending    int               `json:"pending"`
	Processed  int               `json:"processed"`
	Failed     int               `json:"failed"`
	GapsFilled int               `json:"gaps_filled"`
	Covers     int               `json:"covers_downloaded"`
	Duration   string            `json:"duration"`
	LogPath    string            `json:"log_path,omitempty"`
	Titles     []titleResultJSON `json:"titles"`
}

func printSummary(cmd *cobra.Command, ctx *commandContext, summary enrich.Summary, logPath string, dryRun bool) error {
	if ctx.jsonOutput() {
		payload := summaryJSON{
			RunID:      summary.RunID,
			DryRun:     dryRun,
			Found:      summary.Found,
			Pending:    summary.Pending,
			Processed:  summary.Processed,
			Failed:     summary.Failed,
			GapsFilled: summary.Gaps.FieldsFilled(),
			Covers:     summary.Covers.Downloaded,
			Duration:   summary.Duration.Round(time.Millisecond).String(),
			LogPath:    logPath,
			Titles:     make([]titleResultJSON, 0, len(summary.Results)),
		}
		for _, result := range summary.Results {
			item := titleResultJSON{
				Key:     result.Key,
				MAL:     string(result.MAL),
				AniList: string(result.AniList),
				Filled:  result.Filled,
			}
			if result.Err != nil {
				item.Error = result.Err.Error()
			}
			payload.Titles = append(payload.Titles, item)
		}
		return writeJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	if summary.Pending == 0 {
		fmt.Fprintf(out, "Nothing to do (%d titles checked)\n", summary.Found)
		return nil
	}
	if dryRun {
		fmt.Fprintf(out, "Would process %d of %d titles:\n", summary.Pending, summary.Found)
		for _, result := range summary.Results {
			fmt.Fprintf(out, "  %s\n", result.Key)
		}
		return nil
	}

	rows := make([][]string, 0, len(summary.Results))
	for _, result := range summary.Results {
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}
		rows = append(rows, []string{
			result.Key,
			string(result.MAL),
			string(result.AniList),
			strconv.Itoa(result.Filled),
			errText,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Title", "MAL", "AniList", "Filled", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	colorize := shouldColorize(out)
	kind := statusOK
	if summary.Failed > 0 {
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Processed", kind,
		fmt.Sprintf("%d of %d pending, %d failed", summary.Processed, summary.Pending, summary.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Gaps filled", statusInfo, strconv.Itoa(summary.Gaps.FieldsFilled()), colorize))
	fmt.Fprintln(out, renderStatusLine("Covers", statusInfo,
		fmt.Sprintf("%d downloaded, %d failed", summary.Covers.Downloaded, summary.Covers.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, summary.Duration.Round(time.Millisecond).String(), colorize))
	if logPath != "" {
		fmt.Fprintln(out, renderStatusLine("Log", statusInfo, logPath, colorize))
	}
	return nil
}
