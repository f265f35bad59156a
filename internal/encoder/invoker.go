package encoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"soundconverter/internal/fileutil"
	"soundconverter/internal/logging"
	"soundconverter/internal/services"
)

var commandContext = exec.CommandContext

const (
	defaultTailLines = 50
	waitDelay        = 5 * time.Second
)

// Invocation describes one ffmpeg run.
type Invocation struct {
	Source      string
	Destination string
	// InputOptions precede -i and apply to the input (e.g. -ss/-to).
	InputOptions []string
	// Options are placed between the input and the output path.
	Options []string
	// DurationSeconds enables progress logging when positive.
	DurationSeconds float64
}

// Outcome is the result of a finished ffmpeg process.
type Outcome struct {
	ExitCode int
	Stderr   []string
	InPlace  bool
	Elapsed  time.Duration
}

// Invoker launches ffmpeg processes.
type Invoker struct {
	binary    string
	timeout   time.Duration
	tailLines int
	logger    *slog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTimeout bounds each run. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(i *Invoker) { i.timeout = d }
}

// WithLogger routes ffmpeg diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInvoker constructs an Invoker for the resolved ffmpeg binary.
func NewInvoker(binary string, opts ...Option) *Invoker {
	inv := &Invoker{
		binary:    strings.TrimSpace(binary),
		tailLines: defaultTailLines,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Args returns the argument list for writing to target.
func Args(source, target string, inputOptions, options []string) []string {
	args := make([]string, 0, len(inputOptions)+len(options)+6)
	args = append(args, "-hide_banner", "-y")
	args = append(args, inputOptions...)
	args = append(args, "-i", source)
	args = append(args, options...)
	return append(args, target)
}

// Run executes ffmpeg for inv. The returned error is a classified
// services error; Outcome is populated whenever the process started.
func (i *Invoker) Run(ctx context.Context, inv Invocation) (Outcome, error) {
	if strings.TrimSpace(inv.Source) == "" || strings.TrimSpace(inv.Destination) == "" {
		return Outcome{}, services.New(services.ErrValidation, services.CodeInvalidParameter, "source and destination are required", nil)
	}
	logger := logging.WithContext(ctx, i.logger)

	target := inv.Destination
	inPlace := fileutil.SamePath(inv.Source, inv.Destination)
	if inPlace {
		target = fileutil.TempSibling(inv.Destination)
		logger.Debug("in-place conversion, writing to temporary sibling",
			logging.String("destination", inv.Destination),
			logging.String("temp", target),
		)
	}

	runCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	args := Args(inv.Source, target, inv.InputOptions, inv.Options)
	logger.Debug("launching ffmpeg", logging.String("binary", i.binary), logging.Any("args", args))

	cmd := commandContext(runCtx, i.binary, args...) //nolint:gosec
	pr, pw := io.Pipe()
	cmd.Stderr = pw
	cmd.WaitDelay = waitDelay
	start := time.Now()
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return Outcome{InPlace: inPlace}, services.New(services.ErrDependency, services.CodeFFmpegMissing,
			fmt.Sprintf("failed to launch ffmpeg: %s", i.binary), err).
			With("binary", i.binary)
	}

	tail := newTailBuffer(i.tailLines)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i.stream(pr, tail, logger, inv.DurationSeconds)
	}()
	waitErr := cmd.Wait()
	_ = pw.Close()
	wg.Wait()

	outcome := Outcome{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stderr:   tail.Lines(),
		InPlace:  inPlace,
		Elapsed:  time.Since(start),
	}

	if waitErr != nil {
		removePartial(target, inv.Source)
		return outcome, i.classify(ctx, runCtx, waitErr, outcome)
	}

	if inPlace {
		if err := fileutil.Replace(target, inv.Destination); err != nil {
			removePartial(target, inv.Source)
			err = services.Wrap(services.ErrProcessing, "finalize", "replace destination", "", err)
			return outcome, services.Annotate(err, "destination", inv.Destination)
		}
	}
	logger.Debug("ffmpeg finished",
		logging.String("destination", inv.Destination),
		logging.Duration("elapsed", outcome.Elapsed),
	)
	return outcome, nil
}

func (i *Invoker) classify(ctx, runCtx context.Context, waitErr error, outcome Outcome) error {
	if ctx.Err() != nil {
		return services.New(services.ErrProcessing, services.CodeProcessing, "ffmpeg cancelled", ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return services.New(services.ErrTimeout, services.CodeTimeout,
			fmt.Sprintf("ffmpeg exceeded the %s time limit", i.timeout), waitErr).
			With("limit_seconds", int(i.timeout/time.Second))
	}
	return services.New(services.ErrExternalTool, services.CodeFFmpeg,
		fmt.Sprintf("ffmpeg exited with code %d", outcome.ExitCode), waitErr).
		With("return_code", outcome.ExitCode).
		With("stderr", strings.Join(outcome.Stderr, "\n"))
}

var progressTimePattern = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

func (i *Invoker) stream(r io.Reader, tail *tailBuffer, logger *slog.Logger, duration float64) {
	sampler := logging.NewProgressSampler(10)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail.Add(line)
		if duration > 0 {
			if elapsed, ok := parseProgressTime(line); ok {
				percent := elapsed / duration * 100
				if sampler.ShouldLog(percent) {
					logger.Info("encoding progress", logging.Float64("percent", float64(int(min(percent, 100)))))
				}
				continue
			}
		}
		logger.Debug("[ffmpeg] " + line)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("ffmpeg stderr read failed", logging.Error(err))
		// Drain so ffmpeg never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

func parseProgressTime(line string) (float64, bool) {
	m := progressTimePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.ParseFloat(m[1], 64)
	minutes, _ := strconv.ParseFloat(m[2], 64)
	seconds, _ := strconv.ParseFloat(m[3], 64)
	return hours*3600 + minutes*60 + seconds, true
}

// scanLinesOrCR splits on \n or \r; ffmpeg rewrites its status line with \r.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if idx := bytes.IndexAny(data, "\r\n"); idx >= 0 {
		return idx + 1, data[:idx], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func removePartial(path, source string) {
	if path == "" || fileutil.SamePath(path, source) {
		return
	}
	_ = os.Remove(path)
}

type tailBuffer struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if over := len(t.lines) - t.limit; over > 0 {
		t.lines = append(t.lines[:0], t.lines[over:]...)
	}
}

func (t *tailBuffer) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}
