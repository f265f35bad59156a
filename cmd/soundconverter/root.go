package main

import (
	"context"

	"github.com/spf13/cobra"

	"soundconverter/internal/ipc"
	"soundconverter/internal/logging"
	"soundconverter/internal/services"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "soundconverter",
		Short:         "Audio batch processing backend",
		Long:          "Reads one JSON request from stdin, runs it through ffmpeg, and writes JSON-line events to stdout.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() || shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			code := runBackendMode(cmd.Context(), ctx, cmd)
			if code != services.ExitSuccess {
				return &exitError{code: code}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}

// runBackendMode serves a single stdin request. Config failures are reported
// as an event rather than a plain error so the caller always gets JSON.
func runBackendMode(runCtx context.Context, ctx *commandContext, cmd *cobra.Command) int {
	stdout := cmd.OutOrStdout()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		logger, _ := ctx.logger(nil, cmd.ErrOrStderr())
		logger.Error("configuration rejected", logging.Error(err))
		server := ipc.NewServer(nil, ipc.WithLogger(logger))
		return server.Reject(stdout, services.New(services.ErrConfiguration, services.CodeConfig, err.Error(), err))
	}
	logger, err := ctx.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		server := ipc.NewServer(nil)
		return server.Reject(stdout, services.New(services.ErrConfiguration, services.CodeConfig, err.Error(), err))
	}

	b := newBackend(runCtx, cfg, logger)
	defer b.Close()

	server := ipc.NewServer(b.Handle,
		ipc.WithDefaults(ipc.Defaults{Overwrite: cfg.Batch.OverwriteExisting}),
		ipc.WithLogger(logger),
	)
	return server.Serve(runCtx, cmd.InOrStdin(), stdout)
}
