package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"soundconverter/internal/encoder"
	"soundconverter/internal/filterchain"
	"soundconverter/internal/logging"
	"soundconverter/internal/media/ffprobe"
	"soundconverter/internal/validate"
)

const (
	defaultSampleRate = 44100
	modifySuffix      = "_modified"
	modifyExtension   = "wav"
	masterSuffix      = "_mastered"
)

var errNoProber = errors.New("no audio prober configured")

// plan captures how one operation names and encodes each item.
type plan struct {
	// ext is the output extension; empty keeps the source extension.
	ext    string
	suffix string
	build  func(ctx context.Context, source string) (encoder.Invocation, error)
}

func (o *Orchestrator) planFor(req Request, logger *slog.Logger) (plan, error) {
	switch req.Operation {
	case OpTrim:
		return o.planTrim(req)
	case OpModify:
		return o.planModify(req, logger)
	case OpMaster:
		return o.planMaster(req, logger)
	default:
		return o.planConvert(req)
	}
}

func (o *Orchestrator) planConvert(req Request) (plan, error) {
	format, err := validate.OutputFormat(req.Format)
	if err != nil {
		return plan{}, err
	}
	bitrate, err := validate.Bitrate(req.Bitrate)
	if err != nil {
		return plan{}, err
	}
	options := format.Options(bitrate)
	return plan{
		ext: format.Extension(),
		build: func(ctx context.Context, source string) (encoder.Invocation, error) {
			return encoder.Invocation{Options: options, DurationSeconds: o.durationHint(ctx, source)}, nil
		},
	}, nil
}

func (o *Orchestrator) planTrim(req Request) (plan, error) {
	params := req.Trim
	if err := params.Validate(); err != nil {
		return plan{}, err
	}
	graph := filterchain.TrimGraph(params)
	return plan{
		build: func(ctx context.Context, source string) (encoder.Invocation, error) {
			return encoder.Invocation{
				Options:         []string{"-filter:a", graph.String()},
				DurationSeconds: o.durationHint(ctx, source),
			}, nil
		},
	}, nil
}

func (o *Orchestrator) planModify(req Request, logger *slog.Logger) (plan, error) {
	if err := validate.Speed(req.Speed); err != nil {
		return plan{}, err
	}
	if err := validate.Pitch(req.Pitch); err != nil {
		return plan{}, err
	}
	if err := validate.CutWindow(req.CutStart, req.CutEnd); err != nil {
		return plan{}, err
	}
	return plan{
		ext:    modifyExtension,
		suffix: modifySuffix,
		build: func(ctx context.Context, source string) (encoder.Invocation, error) {
			sampleRate := defaultSampleRate
			duration := 0.0
			info, err := o.probeInfo(ctx, source)
			if err != nil {
				logger.Warn("probe failed; assuming defaults",
					logging.String("file", source),
					logging.Int("sample_rate", defaultSampleRate),
					logging.Error(err),
				)
			} else {
				if info.SampleRate > 0 {
					sampleRate = info.SampleRate
				}
				duration = info.Duration
			}

			chain, err := filterchain.Build(req.Speed, req.Pitch, sampleRate)
			if err != nil {
				return encoder.Invocation{}, err
			}
			inv := encoder.Invocation{InputOptions: cutOptions(req.CutStart, req.CutEnd, duration)}
			if !chain.Empty() {
				inv.Options = append(inv.Options, "-filter:a", chain.String())
			}
			inv.Options = append(inv.Options, "-c:a", "pcm_s16le")
			inv.DurationSeconds = duration / req.Speed
			return inv, nil
		},
	}, nil
}

// cutOptions maps the percentage window onto -ss/-to. The window is skipped
// when it covers the whole file or the duration is unknown.
func cutOptions(startPct, endPct, duration float64) []string {
	if duration <= 0 || (startPct <= 0 && endPct >= 100) {
		return nil
	}
	start := duration * startPct / 100
	end := duration * endPct / 100
	if end <= start {
		end = duration
	}
	var opts []string
	if start > 0 {
		opts = append(opts, "-ss", formatSeconds(start))
	}
	if end < duration {
		opts = append(opts, "-to", formatSeconds(end))
	}
	return opts
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (o *Orchestrator) planMaster(req Request, logger *slog.Logger) (plan, error) {
	preset, err := filterchain.ParsePreset(req.Preset)
	if err != nil {
		return plan{}, err
	}
	mastering, err := filterchain.ResolveMastering(preset, req.Mastering)
	if err != nil {
		return plan{}, err
	}
	graph := mastering.Graph()
	logger.Info("mastering preset resolved",
		logging.String("preset", preset.DisplayName()),
		logging.Float64("target_lufs", mastering.TargetLUFS),
		logging.Float64("true_peak", mastering.TruePeak),
		logging.Bool("compression", mastering.ApplyCompression),
		logging.Bool("limiter", mastering.ApplyLimiter),
	)
	return plan{
		suffix: masterSuffix,
		build: func(ctx context.Context, source string) (encoder.Invocation, error) {
			return encoder.Invocation{
				Options:         []string{"-filter:a", graph.String()},
				DurationSeconds: o.durationHint(ctx, source),
			}, nil
		},
	}, nil
}

// durationHint probes the source for progress logging when ffprobe is
// available. Failures are ignored.
func (o *Orchestrator) durationHint(ctx context.Context, source string) float64 {
	if o.ffprobe == "" {
		return 0
	}
	result, err := ffprobe.Inspect(ctx, o.ffprobe, source)
	if err != nil {
		return 0
	}
	return result.Info(source).Duration
}

func (o *Orchestrator) probeInfo(ctx context.Context, source string) (ffprobe.Info, error) {
	if o.prober == nil {
		return ffprobe.Info{}, errNoProber
	}
	return o.prober.Probe(ctx, source)
}
