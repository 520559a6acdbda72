package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cinescan/internal/api"
	"cinescan/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent recognitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx, limit)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent recognitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, ctx, limit)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	historyCmd.AddCommand(listCmd)
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func runHistoryList(cmd *cobra.Command, ctx *commandContext, limit int) error {
	store, err := ctx.requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.HistoryResponse{Entries: api.FromHistoryEntries(entries)})
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No recognitions recorded yet")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, historyRow(entry))
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"When", "Kind", "Matched By", "Result", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

func historyRow(entry history.Entry) []string {
	result := entry.Title
	switch {
	case entry.Success && entry.TMDBID > 0:
		result = fmt.Sprintf("%s (tmdb %d)", entry.Title, entry.TMDBID)
	case !entry.Success && entry.Query != "":
		result = fmt.Sprintf("no match for %q", entry.Query)
	case !entry.Success:
		result = "no match"
	}
	return []string{
		entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		entry.Kind,
		sourceLabel(entry.Source),
		result,
		entry.Duration.Round(time.Millisecond).String(),
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete recorded recognitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && olderThan <= 0 {
				return fmt.Errorf("specify --older-than <duration> or --all")
			}
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			var cutoff time.Time
			if !all {
				cutoff = time.Now().Add(-olderThan)
			}
			removed, err := store.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int64{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s history entries\n", strconv.FormatInt(removed, 10))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Remove entries older than this age (e.g. 720h)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every entry")
	return cmd
}
