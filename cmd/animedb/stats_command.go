package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"animedb/internal/enrich"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var watchedPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the library size and watch time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			_, aniStore, err := ctx.openStores(logger)
			if err != nil {
				return err
			}
			var watched []string
			if watchedPath != "" {
				watched, err = enrich.ReadWatchedFile(watchedPath)
				if err != nil {
					return err
				}
			}
			stats := enrich.ComputeStats(aniStore, watched)

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{
					"titles":          stats.Titles,
					"watched":         stats.Watched,
					"watched_percent": stats.WatchedPercent,
					"minutes":         stats.Minutes,
					"hours":           stats.Hours,
					"days":            stats.Days,
				})
			}

			rows := [][]string{
				{"Titles", strconv.Itoa(stats.Titles)},
				{"Watched", fmt.Sprintf("%d (%d%%)", stats.Watched, stats.WatchedPercent)},
				{"Minutes", strconv.Itoa(stats.Minutes)},
				{"Hours", strconv.Itoa(stats.Hours)},
				{"Days", strconv.Itoa(stats.Days)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&watchedPath, "watched", "", "File listing watched title keys, one per line")
	return cmd
}
