package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"soundconverter/internal/encoder"
	"soundconverter/internal/logging"
	"soundconverter/internal/media/ffprobe"
	"soundconverter/internal/naming"
	"soundconverter/internal/services"
	"soundconverter/internal/validate"
)

// State is an orchestrator lifecycle phase.
type State string

const (
	StateValidating  State = "validating"
	StatePreparing   State = "preparing"
	StateProcessing  State = "processing"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
)

// Runner executes one ffmpeg invocation.
type Runner interface {
	Run(ctx context.Context, inv encoder.Invocation) (encoder.Outcome, error)
}

// Prober reads audio metadata for a file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Options configures an Orchestrator.
type Options struct {
	Runner Runner
	Prober Prober
	// FFprobe enables duration hints for progress logging.
	FFprobe       string
	Logger        *slog.Logger
	Concurrency   int
	MaxFileBytes  int64
	Disambiguator naming.Style
}

// Orchestrator runs batch requests.
type Orchestrator struct {
	runner       Runner
	prober       Prober
	ffprobe      string
	logger       *slog.Logger
	concurrency  int
	maxFileBytes int64
	style        naming.Style
}

// New constructs an Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		runner:       opts.Runner,
		prober:       opts.Prober,
		ffprobe:      opts.FFprobe,
		logger:       logging.NewComponentLogger(logger, "jobs"),
		concurrency:  concurrency,
		maxFileBytes: opts.MaxFileBytes,
		style:        opts.Disambiguator,
	}
}

// Run executes req, emitting progress to sink. The returned error is a
// classified services error; Result is populated in both cases.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) (Result, error) {
	if sink == nil {
		sink = discardSink{}
	}
	req = req.WithDefaults()
	ctx = services.WithOperation(ctx, string(req.Operation))
	if req.ID != "" {
		ctx = services.WithRequestID(ctx, req.ID)
	}
	logger := logging.WithContext(ctx, o.logger)
	result := Result{Operation: req.Operation, Outputs: []string{}}

	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("files", len(req.Inputs)),
		logging.String("output_dir", req.OutputDir),
		logging.Int("workers", o.concurrency),
	)
	started := time.Now()

	if req.Operation == OpAnalyze {
		return o.analyze(ctx, req, logger)
	}

	o.transition(logger, StateValidating)
	p, err := o.check(req, logger)
	if err != nil {
		return result, o.fail(logger, err)
	}
	if o.runner == nil {
		return result, o.fail(logger, services.New(services.ErrDependency, services.CodeFFmpegMissing, "ffmpeg runner unavailable", nil))
	}

	o.transition(logger, StatePreparing)
	if err := validate.OutputDirectory(req.OutputDir); err != nil {
		return result, o.fail(logger, err)
	}
	items, err := o.allocate(req, p, logger)
	if err != nil {
		return result, o.fail(logger, err)
	}

	o.transition(logger, StateProcessing)
	itemResults, runErr := o.process(ctx, req, p, items, sink)
	result.Items = itemResults

	o.transition(logger, StateAggregating)
	for _, item := range itemResults {
		if item.Status == ItemCompleted {
			result.Outputs = append(result.Outputs, item.Destination)
		}
	}
	if runErr != nil {
		result.Outputs = []string{}
		return result, o.fail(logger, runErr)
	}
	if len(result.Outputs) == 0 {
		return result, o.fail(logger, services.New(services.ErrProcessing, services.CodeNoOutput, "no output produced", nil))
	}

	result.Success = true
	result.Message = completionMessage(req.Operation, result.Outputs, req.OutputDir)
	o.transition(logger, StateDone)
	logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("outputs", len(result.Outputs)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// Validate runs the request checks Run performs before touching ffmpeg. It
// needs no runner or prober, so callers can reject a bad request before
// resolving the toolchain.
func (o *Orchestrator) Validate(req Request) error {
	req = req.WithDefaults()
	if req.Operation == OpAnalyze {
		if len(req.Inputs) == 0 {
			return services.New(services.ErrValidation, services.CodeNoInput, "no input files provided", nil)
		}
		return nil
	}
	_, err := o.check(req, o.logger)
	return err
}

func (o *Orchestrator) check(req Request, logger *slog.Logger) (plan, error) {
	if len(req.Inputs) == 0 {
		return plan{}, services.New(services.ErrProcessing, services.CodeNoOutput, "no output produced", nil).
			With("reason", "no input files")
	}
	if err := validate.InputFiles(req.Inputs, o.maxFileBytes); err != nil {
		return plan{}, err
	}
	return o.planFor(req, logger)
}

func (o *Orchestrator) transition(logger *slog.Logger, state State) {
	logger.Debug("batch state", logging.String("state", string(state)))
}

func (o *Orchestrator) fail(logger *slog.Logger, err error) error {
	logger.Error("batch failed",
		logging.String(logging.FieldEventType, "batch_failure"),
		logging.String("error_code", string(services.CodeOf(err))),
		logging.Error(err),
	)
	return err
}

func (o *Orchestrator) allocate(req Request, p plan, logger *slog.Logger) ([]WorkItem, error) {
	allocator := naming.NewAllocator(req.Overwrite, naming.WithStyle(o.style))
	items := make([]WorkItem, 0, len(req.Inputs))
	for idx, source := range req.Inputs {
		alloc, err := allocator.Allocate(source, req.OutputDir, p.ext, p.suffix)
		if err != nil {
			return nil, services.New(services.ErrProcessing, services.CodeProcessing, "allocate destination", err).
				With("file", source)
		}
		if alloc.Collided {
			logger.Warn("destination already allocated in this batch; later file overwrites it",
				logging.String("destination", alloc.Path),
				logging.String("file", source),
				logging.String("previous_file", alloc.PreviousOwner),
				logging.String(logging.FieldErrorHint, "disable overwrite_existing to keep both outputs"),
			)
		}
		items = append(items, WorkItem{Index: idx, Source: source, Destination: alloc.Path})
	}
	return items, nil
}

func (o *Orchestrator) process(ctx context.Context, req Request, p plan, items []WorkItem, sink Sink) ([]ItemResult, error) {
	results := make([]ItemResult, len(items))
	for i, item := range items {
		results[i] = ItemResult{WorkItem: item, Status: ItemSkipped}
	}
	if o.concurrency <= 1 || len(items) <= 1 {
		for i, item := range items {
			if err := o.safeRunItem(ctx, req, p, item, len(items), sink); err != nil {
				results[i].Status = ItemFailed
				results[i].Error = services.MessageOf(err)
				return results, err
			}
			results[i].Status = ItemCompleted
		}
		return results, nil
	}

	var (
		failed atomic.Bool
		mu     sync.Mutex
		errs   = make([]error, len(items))
		g      errgroup.Group
	)
	g.SetLimit(o.concurrency)
	for i, item := range items {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			err := o.safeRunItem(ctx, req, p, item, len(items), sink)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed.Store(true)
				errs[i] = err
				results[i].Status = ItemFailed
				results[i].Error = services.MessageOf(err)
				return nil
			}
			results[i].Status = ItemCompleted
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	if err := ctx.Err(); err != nil {
		return results, services.New(services.ErrProcessing, services.CodeProcessing, "batch cancelled", err)
	}
	return results, nil
}

// safeRunItem converts a panic in a worker into a FATAL_ERROR for the item.
func (o *Orchestrator) safeRunItem(ctx context.Context, req Request, p plan, item WorkItem, total int, sink Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.New(services.ErrFatal, services.CodeFatal, fmt.Sprint(r), nil).
				With("traceback", string(debug.Stack())).
				With("file", item.Source).
				With("index", item.Index+1).
				With("total", total)
			o.logger.Error("item panicked",
				logging.String(logging.FieldEventType, "item_failure"),
				logging.String("file", item.Source),
				logging.Error(err),
			)
		}
	}()
	return o.runItem(ctx, req, p, item, total, sink)
}

func (o *Orchestrator) runItem(ctx context.Context, req Request, p plan, item WorkItem, total int, sink Sink) error {
	ctx = services.WithItemIndex(ctx, item.Index+1)
	logger := logging.WithContext(ctx, o.logger)

	sink.Progress(Progress{
		Operation:   req.Operation,
		Status:      StatusProcessing,
		Index:       item.Index + 1,
		Total:       total,
		File:        item.Source,
		Destination: item.Destination,
	})
	logger.Info("item started",
		logging.String(logging.FieldEventType, "item_start"),
		logging.String("file", item.Source),
		logging.String("destination", item.Destination),
	)

	err := o.encode(ctx, p, item)
	if err != nil {
		err = services.Annotate(err, "file", item.Source)
		err = services.Annotate(err, "index", item.Index+1)
		err = services.Annotate(err, "total", total)
		err = services.Prefix(err, fmt.Sprintf("%s (%d/%d): ", filepath.Base(item.Source), item.Index+1, total))
		logger.Error("item failed",
			logging.String(logging.FieldEventType, "item_failure"),
			logging.String("file", item.Source),
			logging.Error(err),
		)
		return err
	}

	sink.Progress(Progress{
		Operation:   req.Operation,
		Status:      StatusCompleted,
		Index:       item.Index + 1,
		Total:       total,
		File:        item.Source,
		Destination: item.Destination,
	})
	logger.Info("item completed",
		logging.String(logging.FieldEventType, "item_complete"),
		logging.String("destination", item.Destination),
	)
	return nil
}

func (o *Orchestrator) encode(ctx context.Context, p plan, item WorkItem) error {
	if err := ctx.Err(); err != nil {
		return services.New(services.ErrProcessing, services.CodeProcessing, "batch cancelled", err)
	}
	inv, err := p.build(ctx, item.Source)
	if err != nil {
		return err
	}
	inv.Source = item.Source
	inv.Destination = item.Destination
	_, err = o.runner.Run(ctx, inv)
	return err
}

func completionMessage(op Operation, outputs []string, outputDir string) string {
	if len(outputs) == 1 {
		return fmt.Sprintf("Saved file to %s", outputs[0])
	}
	return fmt.Sprintf("%s %d files into %s", op.verb(), len(outputs), filepath.Clean(outputDir))
}
