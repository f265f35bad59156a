package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soundconverter/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var batch string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the backend log file",
		Long:  "Prints the tail of the log file written when logging.file is enabled. --batch narrows output to one request ID.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cfg.Logging.File {
				return fmt.Errorf("no log file at %s; enable logging.file in the configuration", path)
			}

			match := logs.MatchRequest(batch)
			tail, offset, err := logs.Last(path, lines, match)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, logs.FollowOptions{Offset: offset, Match: match}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&batch, "batch", "", "Only show lines for this batch request ID")
	return cmd
}
