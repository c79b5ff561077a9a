package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"quietcut/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOutput bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show files recorded in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withLedger(cmd.Context(), func(store *ledger.Store) error {
				entries, err := store.List(cmd.Context(), filter...)
				if err != nil {
					return err
				}
				if jsonOutput {
					if entries == nil {
						entries = []ledger.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Ledger is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]column{col("File"), col("Status"), numCol("Clips"), numCol("Attempts"), col("Updated"), col("Detail")},
					historyRows(entries, time.Now()),
				))
				return nil
			})
		},
	}
	historyCmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (completed, empty, failed, deferred, processing)")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	historyCmd.AddCommand(newHistoryRetryCommand(ctx))
	return historyCmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget ledger entries so their files are processed again",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withLedger(cmd.Context(), func(store *ledger.Store) error {
				removed, err := store.Clear(cmd.Context(), filter...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", removed, pluralize(removed, "entry", "entries"))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Only clear entries with these statuses")
	return cmd
}

func newHistoryRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Mark failed files for another attempt on the next scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(cmd.Context(), func(store *ledger.Store) error {
				reset, err := store.ResetFailed(cmd.Context())
				if err != nil {
					return err
				}
				if reset == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed files to retry")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d failed %s will be retried\n", reset, pluralize(reset, "file", "files"))
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]ledger.Status, error) {
	var out []ledger.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := ledger.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		out = append(out, status)
	}
	return out, nil
}

func historyRows(entries []ledger.Entry, now time.Time) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.ErrorMessage
		if detail == "" && e.Outcome != "" {
			detail = e.Outcome
		}
		clips := ""
		if e.Clips > 0 {
			clips = fmt.Sprintf("%d", e.Clips)
		}
		rows = append(rows, []string{
			filepath.Base(e.Path),
			string(e.Status),
			clips,
			fmt.Sprintf("%d", e.Attempts),
			humanize.RelTime(e.UpdatedAt, now, "ago", "from now"),
			detail,
		})
	}
	return rows
}

func pluralize(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
