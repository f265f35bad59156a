package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"soundconverter/internal/logging"
	"soundconverter/internal/media/ffprobe"
	"soundconverter/internal/services"
)

// Suggested mastering presets reported by analyze.
const (
	SuggestMusic     = "Music"
	SuggestPodcast   = "Podcast"
	SuggestVoiceOver = "Voice-over"

	analysisFailed = "Analysis failed"

	voiceBitrateCeiling = 96000
	podcastMinDuration  = 600
)

// Analysis is the per-file report returned by analyze. Failed files carry
// only File and Error.
type Analysis struct {
	File       string  `json:"file"`
	Duration   float64 `json:"duration"`
	BitRate    int64   `json:"bit_rate"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sample_rate"`
	Codec      string  `json:"codec"`
	Suggestion string  `json:"suggestion"`
	Error      string  `json:"error,omitempty"`
}

// MarshalJSON reduces failed reports to {file, error}.
func (a Analysis) MarshalJSON() ([]byte, error) {
	if a.Error != "" {
		return json.Marshal(struct {
			File  string `json:"file"`
			Error string `json:"error"`
		}{a.File, a.Error})
	}
	type report Analysis
	return json.Marshal(report(a))
}

// Suggest picks a mastering preset for the probed file.
func Suggest(info ffprobe.Info) string {
	switch {
	case info.Channels == 1 || info.BitRate < voiceBitrateCeiling:
		return SuggestVoiceOver
	case info.Duration > podcastMinDuration:
		return SuggestPodcast
	default:
		return SuggestMusic
	}
}

func (o *Orchestrator) analyze(ctx context.Context, req Request, logger *slog.Logger) (Result, error) {
	result := Result{Operation: OpAnalyze, Outputs: []string{}}
	if len(req.Inputs) == 0 {
		return result, o.fail(logger, services.New(services.ErrValidation, services.CodeNoInput, "no input files provided", nil))
	}
	if o.prober == nil {
		return result, o.fail(logger, services.New(services.ErrDependency, services.CodeFFmpegMissing, "ffmpeg not found", nil))
	}

	reports := make([]Analysis, 0, len(req.Inputs))
	for idx, path := range req.Inputs {
		itemLogger := logging.WithContext(services.WithItemIndex(ctx, idx+1), o.logger)
		info, err := o.prober.Probe(ctx, path)
		if err != nil {
			itemLogger.Warn("analysis failed",
				logging.String("file", path),
				logging.Error(err),
			)
			reports = append(reports, Analysis{File: path, Error: analysisFailed})
			result.Items = append(result.Items, ItemResult{WorkItem: WorkItem{Index: idx, Source: path}, Status: ItemFailed, Error: analysisFailed})
			continue
		}
		report := Analysis{
			File:       path,
			Duration:   info.Duration,
			BitRate:    info.BitRate,
			Channels:   info.Channels,
			SampleRate: info.SampleRate,
			Codec:      info.Codec,
			Suggestion: Suggest(info),
		}
		itemLogger.Info("analysis complete",
			logging.String("file", path),
			logging.Float64("duration", info.Duration),
			logging.String("suggestion", report.Suggestion),
		)
		reports = append(reports, report)
		result.Items = append(result.Items, ItemResult{WorkItem: WorkItem{Index: idx, Source: path}, Status: ItemCompleted})
	}

	result.Success = true
	result.Message = "Analysis complete"
	result.Data = reports
	logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.String("summary", fmt.Sprintf("%s %d files", OpAnalyze.verb(), len(reports))),
	)
	return result, nil
}
