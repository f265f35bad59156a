package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundconverter/internal/history"
	"soundconverter/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded batches",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func withHistory(cmd *cobra.Command, ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cmd.Context(), cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, ctx, func(store *history.Store) error {
				batches, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if batches == nil {
						batches = []history.Batch{}
					}
					return writeJSON(cmd, batches)
				}
				if len(batches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No batches recorded")
					return nil
				}
				rows := make([][]string, 0, len(batches))
				for _, b := range batches {
					rows = append(rows, []string{
						shortID(b.ID),
						b.StartedAt.Local().Format("2006-01-02 15:04:05"),
						b.Operation,
						string(b.Status),
						fmt.Sprintf("%d/%d", b.OutputCount, b.FileCount),
						b.Duration().Round(time.Millisecond).String(),
						batchSummary(b),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Started", "Operation", "Status", "Outputs", "Elapsed", "Summary"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of batches to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one batch and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, ctx, func(store *history.Store) error {
				batch, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return &exitError{code: services.ExitNotFound, err: err}
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, batch)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Batch:     %s\n", batch.ID)
				fmt.Fprintf(out, "Operation: %s\n", batch.Operation)
				fmt.Fprintf(out, "Status:    %s\n", batch.Status)
				if batch.ErrorCode != "" {
					fmt.Fprintf(out, "Error:     %s\n", batch.ErrorCode)
				}
				fmt.Fprintf(out, "Message:   %s\n", batch.Message)
				fmt.Fprintf(out, "Output:    %s\n", batch.OutputDir)
				fmt.Fprintf(out, "Started:   %s\n", batch.StartedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Elapsed:   %s\n", batch.Duration().Round(time.Millisecond))
				if len(batch.Items) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(batch.Items))
				for _, item := range batch.Items {
					rows = append(rows, []string{
						strconv.Itoa(item.Position + 1),
						filepath.Base(item.Source),
						item.Destination,
						item.Status,
						item.Error,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Source", "Destination", "Status", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete batches older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.History.RetentionDays
			}
			if days < 0 {
				return &exitError{code: services.ExitInvalidArgs, err: errors.New("--days must not be negative")}
			}
			return withHistory(cmd, ctx, func(store *history.Store) error {
				cutoff := time.Now().AddDate(0, 0, -days)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d batches older than %d days\n", removed, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (defaults to history.retention_days)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func batchSummary(b history.Batch) string {
	summary := strings.TrimSpace(b.Message)
	if b.ErrorCode != "" {
		summary = b.ErrorCode + ": " + summary
	}
	const maxLen = 60
	if len(summary) > maxLen {
		summary = summary[:maxLen-3] + "..."
	}
	return summary
}
