package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"soundconverter/internal/deps"
	"soundconverter/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Show the resolved ffmpeg and ffprobe executables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckEnvironment(depsOptions(cfg))

			if jsonOutput {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					rows = append(rows, statusRow(status))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Tool", "Available", "Required", "Source", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}

			for _, status := range statuses {
				if !status.Available && !status.Optional {
					return &exitError{
						code: services.ExitDependencyMissing,
						err:  errors.New(status.Name + " " + status.Detail),
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func statusRow(status deps.Status) []string {
	source := string(status.Source)
	if source == "" {
		source = "-"
	}
	path := status.Command
	if !status.Available {
		path = status.Detail
	}
	return []string{status.Name, yesNo(status.Available), yesNo(!status.Optional), source, path}
}
