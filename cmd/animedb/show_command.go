package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"animedb/internal/record"
)

type showPayload struct {
	Key     string         `json:"key" yaml:"key"`
	MAL     *record.Record `json:"mal" yaml:"mal"`
	AniList *record.Record `json:"anilist" yaml:"anilist"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print both records of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if ctx.jsonOutput() {
				format = "json"
			}
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unsupported format %q (want table, json or yaml)", format)
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			malStore, aniStore, err := ctx.openStores(logger)
			if err != nil {
				return err
			}
			payload := showPayload{Key: key}
			if rec, ok := malStore.Get(key); ok {
				payload.MAL = &rec
			}
			if rec, ok := aniStore.Get(key); ok {
				payload.AniList = &rec
			}
			if payload.MAL == nil && payload.AniList == nil {
				return fmt.Errorf("no record for %q", key)
			}

			switch format {
			case "json":
				return writeJSON(cmd, payload)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(payload); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "MAL", "AniList"},
				recordRows(payload.MAL, payload.AniList),
				nil,
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}

type recordField struct {
	name   string
	render func(record.Record) string
}

var recordFields = []recordField{
	{"title", func(r record.Record) string { return r.Title }},
	{"mal_id", func(r record.Record) string { return intText(r.MALID) }},
	{"anilist_id", func(r record.Record) string { return intText(r.AniListID) }},
	{"type", func(r record.Record) string { return stringText(r.Type) }},
	{"year", func(r record.Record) string { return intText(r.Year) }},
	{"aired", func(r record.Record) string { return stringText(r.Aired) }},
	{"episodes", func(r record.Record) string { return intText(r.Episodes) }},
	{"duration", func(r record.Record) string { return intText(r.Duration) }},
	{"score", func(r record.Record) string {
		if r.Score == nil {
			return ""
		}
		return strconv.FormatFloat(*r.Score, 'f', -1, 64)
	}},
	{"rating", func(r record.Record) string { return stringText(r.Rating) }},
	{"is_adult", func(r record.Record) string {
		if r.IsAdult == nil {
			return ""
		}
		return yesNo(*r.IsAdult)
	}},
	{"genres", func(r record.Record) string { return strings.Join(r.Genres, ", ") }},
	{"studios", func(r record.Record) string { return strings.Join(r.Studios, ", ") }},
	{"image", func(r record.Record) string { return r.Image }},
	{"fullpath", func(r record.Record) string { return r.FullPath }},
}

func recordRows(mal, anilist *record.Record) [][]string {
	rows := make([][]string, 0, len(recordFields))
	for _, field := range recordFields {
		row := []string{field.name, "", ""}
		if mal != nil {
			row[1] = field.render(*mal)
		}
		if anilist != nil {
			row[2] = field.render(*anilist)
		}
		rows = append(rows, row)
	}
	return rows
}

func intText(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func stringText(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
