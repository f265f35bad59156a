package ipc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"soundconverter/internal/filterchain"
	"soundconverter/internal/jobs"
	"soundconverter/internal/services"
)

// Defaults supplies values for fields the request omits.
type Defaults struct {
	Overwrite bool
	Format    string
	OutputDir string
}

// payload mirrors the request JSON. Pointer fields distinguish "absent" from
// zero values.
type payload struct {
	Operation string `json:"operation"`

	Files      []string `json:"files"`
	InputPaths []string `json:"input_paths"`

	Output          string `json:"output"`
	OutputDirectory string `json:"output_directory"`

	Format       string `json:"format"`
	OutputFormat string `json:"output_format"`
	Bitrate      string `json:"bitrate"`

	OverwriteExisting *bool  `json:"overwrite_existing"`
	FFmpegPath        string `json:"ffmpeg_path"`

	Speed    *float64 `json:"speed"`
	Pitch    *float64 `json:"pitch"`
	CutStart *float64 `json:"cut_start"`
	CutEnd   *float64 `json:"cut_end"`

	Preset     string                      `json:"preset"`
	Parameters filterchain.MasteringParams `json:"parameters"`

	SilenceThreshold *float64 `json:"silence_threshold"`
	MinimumSilenceMS *int     `json:"minimum_silence_ms"`
	PaddingMS        *int     `json:"padding_ms"`
}

// Decode parses one request. Empty input is reported by IsEmpty before
// Decode is called.
func Decode(data []byte, defaults Defaults) (jobs.Request, error) {
	var p payload
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return jobs.Request{}, decodeError(err)
	}
	if dec.More() {
		return jobs.Request{}, services.New(services.ErrValidation, services.CodeJSON, "invalid JSON input: trailing data after request object", nil)
	}

	op, err := jobs.ParseOperation(p.Operation)
	if err != nil {
		return jobs.Request{}, err
	}

	req := jobs.Request{
		Operation:  op,
		Inputs:     firstNonEmpty(p.Files, p.InputPaths),
		OutputDir:  firstString(p.Output, p.OutputDirectory, defaults.OutputDir, "."),
		Format:     firstString(p.Format, p.OutputFormat, defaults.Format, "mp3"),
		Bitrate:    strings.TrimSpace(p.Bitrate),
		Overwrite:  defaults.Overwrite,
		FFmpegPath: strings.TrimSpace(p.FFmpegPath),
		Speed:      1,
		CutEnd:     100,
		Preset:     p.Preset,
		Mastering:  p.Parameters,
		Trim: filterchain.TrimParams{
			ThresholdDB:      filterchain.DefaultSilenceThreshold,
			MinimumSilenceMS: filterchain.DefaultMinimumSilenceMS,
		},
	}
	if p.OverwriteExisting != nil {
		req.Overwrite = *p.OverwriteExisting
	}
	if p.Speed != nil {
		req.Speed = *p.Speed
	}
	if p.Pitch != nil {
		if *p.Pitch != math.Trunc(*p.Pitch) {
			return jobs.Request{}, services.New(services.ErrValidation, services.CodeInvalidParameter, "pitch must be a whole number of semitones", nil).
				With("field", "pitch").
				With("value", *p.Pitch)
		}
		req.Pitch = int(*p.Pitch)
	}
	if p.CutStart != nil {
		req.CutStart = *p.CutStart
	}
	if p.CutEnd != nil {
		req.CutEnd = *p.CutEnd
	}
	if p.SilenceThreshold != nil {
		req.Trim.ThresholdDB = *p.SilenceThreshold
	}
	if p.MinimumSilenceMS != nil {
		req.Trim.MinimumSilenceMS = *p.MinimumSilenceMS
	}
	if p.PaddingMS != nil {
		req.Trim.PaddingMS = *p.PaddingMS
	}
	return req, nil
}

// IsEmpty reports whether the request body is blank.
func IsEmpty(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return services.New(services.ErrValidation, services.CodeInvalidParameter,
			fmt.Sprintf("field %q has the wrong type (got %s)", typeErr.Field, typeErr.Value), err).
			With("field", typeErr.Field)
	}
	return services.New(services.ErrValidation, services.CodeJSON, fmt.Sprintf("invalid JSON input: %v", err), err)
}

func firstNonEmpty(lists ...[]string) []string {
	for _, list := range lists {
		if len(list) > 0 {
			return append([]string(nil), list...)
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
