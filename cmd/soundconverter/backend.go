package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"soundconverter/internal/config"
	"soundconverter/internal/deps"
	"soundconverter/internal/encoder"
	"soundconverter/internal/history"
	"soundconverter/internal/jobs"
	"soundconverter/internal/logging"
	"soundconverter/internal/media/ffprobe"
	"soundconverter/internal/naming"
	"soundconverter/internal/services"
)

// backend wires config, toolchain discovery, the orchestrator, and the
// history ledger behind an ipc.Handler.
type backend struct {
	cfg     *config.Config
	logger  *slog.Logger
	deps    deps.Options
	history *history.Store
	now     func() time.Time
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) *backend {
	b := &backend{
		cfg:    cfg,
		logger: logger,
		deps:   depsOptions(cfg),
		now:    time.Now,
	}
	if cfg.History.Enabled {
		b.history = openHistory(ctx, cfg, logger)
	}
	return b
}

// openHistory opens the ledger and prunes expired batches. Failures only
// disable recording.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		logger.Warn("history unavailable; batches will not be recorded",
			logging.String("path", cfg.HistoryPath()),
			logging.Error(err),
		)
		return nil
	}
	if days := cfg.History.RetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		if removed, err := store.Prune(ctx, cutoff); err != nil {
			logger.Warn("history prune failed", logging.Error(err))
		} else if removed > 0 {
			logger.Debug("history pruned", logging.Int64("removed", removed))
		}
	}
	return store
}

// Close releases the history store.
func (b *backend) Close() error {
	if b.history == nil {
		return nil
	}
	return b.history.Close()
}

// Handle resolves the toolchain for req, runs the batch, and records it.
func (b *backend) Handle(ctx context.Context, req jobs.Request, sink jobs.Sink) (jobs.Result, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	started := b.now()
	result, err := b.run(ctx, req, sink)
	b.record(ctx, req, result, err, started)
	return result, err
}

func (b *backend) run(ctx context.Context, req jobs.Request, sink jobs.Sink) (jobs.Result, error) {
	if err := jobs.New(b.jobOptions()).Validate(req); err != nil {
		b.logger.Warn("request rejected",
			logging.String("error_code", string(services.CodeOf(err))),
			logging.Error(err),
		)
		return jobs.Result{Operation: req.Operation, Outputs: []string{}}, err
	}
	env, err := deps.Resolve(b.deps.WithOverride(req.FFmpegPath))
	if err != nil {
		b.logger.Error("ffmpeg not found",
			logging.String(logging.FieldErrorHint, deps.InstallHint()),
			logging.Error(err),
		)
		return jobs.Result{Operation: req.Operation, Outputs: []string{}}, err
	}
	b.logger.Debug("toolchain resolved",
		logging.String("ffmpeg", env.FFmpeg.Path),
		logging.String("ffmpeg_source", string(env.FFmpeg.Source)),
		logging.String("ffprobe", env.FFprobe.Path),
	)

	invoker := encoder.NewInvoker(env.FFmpeg.Path,
		encoder.WithTimeout(b.cfg.EncoderTimeout()),
		encoder.WithLogger(b.logger),
	)
	opts := b.jobOptions()
	opts.Runner = invoker
	opts.Prober = ffprobe.Prober{FFprobe: env.FFprobe.Path, FFmpeg: env.FFmpeg.Path}
	opts.FFprobe = env.FFprobe.Path
	return jobs.New(opts).Run(ctx, req, sink)
}

func (b *backend) jobOptions() jobs.Options {
	return jobs.Options{
		Logger:        b.logger,
		Concurrency:   b.cfg.Batch.MaxConcurrentFiles,
		MaxFileBytes:  b.cfg.MaxFileSizeBytes(),
		Disambiguator: naming.ParseStyle(b.cfg.Naming.Disambiguator),
	}
}

func (b *backend) record(ctx context.Context, req jobs.Request, result jobs.Result, runErr error, started time.Time) {
	if b.history == nil {
		return
	}
	batch := batchRecord(req, result, runErr, started, b.now())
	// Record even when the request was cancelled.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := b.history.Record(recordCtx, batch); err != nil {
		b.logger.Warn("history record failed", logging.String("batch", req.ID), logging.Error(err))
	}
}

func batchRecord(req jobs.Request, result jobs.Result, runErr error, started, finished time.Time) history.Batch {
	op := req.Operation
	if op == "" {
		op = jobs.OpConvert
	}
	batch := history.Batch{
		ID:          req.ID,
		Operation:   string(op),
		Status:      history.StatusSucceeded,
		Message:     result.Message,
		OutputDir:   req.OutputDir,
		FileCount:   len(req.Inputs),
		OutputCount: len(result.Outputs),
		StartedAt:   started,
		FinishedAt:  finished,
	}
	if runErr != nil {
		batch.Status = history.StatusFailed
		batch.ErrorCode = string(services.CodeOf(runErr))
		batch.Message = services.MessageOf(runErr)
	}
	for _, item := range result.Items {
		batch.Items = append(batch.Items, history.Item{
			Position:    item.Index,
			Source:      item.Source,
			Destination: item.Destination,
			Status:      string(item.Status),
			Error:       item.Error,
		})
	}
	return batch
}
