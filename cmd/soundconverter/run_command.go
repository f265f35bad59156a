package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"soundconverter/internal/ipc"
	"soundconverter/internal/jobs"
	"soundconverter/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run [request.json]",
		Short: "Run a batch request from a file or stdin",
		Long: "Runs the same pipeline as backend mode. On a terminal a progress bar is drawn on stderr " +
			"and a summary printed; --json (or a non-terminal stdout) emits the JSON-line events instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			data, err := readRequest(cmd.InOrStdin(), args)
			if err != nil {
				return &exitError{code: services.ExitInvalidArgs, err: err}
			}

			b := newBackend(cmd.Context(), cfg, logger)
			defer b.Close()
			defaults := ipc.Defaults{Overwrite: cfg.Batch.OverwriteExisting}

			if jsonOutput || !isTerminal(cmd.OutOrStdout()) {
				server := ipc.NewServer(b.Handle, ipc.WithDefaults(defaults), ipc.WithLogger(logger))
				if code := server.Serve(cmd.Context(), bytes.NewReader(data), cmd.OutOrStdout()); code != services.ExitSuccess {
					return &exitError{code: code}
				}
				return nil
			}

			if ipc.IsEmpty(data) {
				return &exitError{code: services.ExitInvalidArgs, err: errors.New("request is empty")}
			}
			req, err := ipc.Decode(data, defaults)
			if err != nil {
				return &exitError{code: services.ExitCode(err), err: err}
			}
			sink := newBarSink(cmd.ErrOrStderr(), len(req.Inputs), req.Operation)
			result, err := b.Handle(cmd.Context(), req, sink)
			sink.finish()
			if err != nil {
				return &exitError{code: services.ExitCode(err), err: fmt.Errorf("%s: %s", services.CodeOf(err), services.MessageOf(err))}
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON-line events instead of a progress bar")
	return cmd
}

func readRequest(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read request from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return data, nil
}

// barSink renders item progress as a terminal progress bar.
type barSink struct {
	bar *progressbar.ProgressBar
}

func newBarSink(w io.Writer, total int, op jobs.Operation) *barSink {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(string(op)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return &barSink{bar: bar}
}

func (s *barSink) Progress(p jobs.Progress) {
	switch p.Status {
	case jobs.StatusProcessing:
		s.bar.Describe(fmt.Sprintf("%s %s", p.Operation, filepath.Base(p.File)))
	case jobs.StatusCompleted:
		_ = s.bar.Add(1)
	}
}

func (s *barSink) finish() {
	_ = s.bar.Finish()
}

func printResult(w io.Writer, result jobs.Result) {
	if reports, ok := result.Data.([]jobs.Analysis); ok {
		fmt.Fprintln(w, renderAnalysis(reports))
	}
	fmt.Fprintln(w, result.Message)
	for _, output := range result.Outputs {
		fmt.Fprintf(w, "  %s\n", output)
	}
}

func renderAnalysis(reports []jobs.Analysis) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		if r.Error != "" {
			rows = append(rows, []string{filepath.Base(r.File), "", "", "", "", "", r.Error})
			continue
		}
		rows = append(rows, []string{
			filepath.Base(r.File),
			fmt.Sprintf("%.1fs", r.Duration),
			fmt.Sprintf("%dk", r.BitRate/1000),
			fmt.Sprintf("%d", r.Channels),
			fmt.Sprintf("%d", r.SampleRate),
			r.Codec,
			r.Suggestion,
		})
	}
	return renderTable(
		[]string{"File", "Duration", "Bitrate", "Channels", "Sample Rate", "Codec", "Suggestion"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isTerminalFd(file.Fd())
}
