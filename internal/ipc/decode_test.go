package ipc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"soundconverter/internal/encoder"
	"soundconverter/internal/filterchain"
	"soundconverter/internal/jobs"
	"soundconverter/internal/services"
)

func TestDecodeAliasesAndDefaults(t *testing.T) {
	req, err := Decode([]byte(`{"files":["a.wav"],"output":"/out","format":"ogg","bitrate":"160k"}`), Defaults{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Operation != jobs.OpConvert || req.OutputDir != "/out" || req.Format != "ogg" || req.Bitrate != "160k" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Speed != 1 || req.CutEnd != 100 {
		t.Fatalf("expected modify defaults, got %+v", req)
	}
	if req.Trim.ThresholdDB != filterchain.DefaultSilenceThreshold || req.Trim.MinimumSilenceMS != filterchain.DefaultMinimumSilenceMS {
		t.Fatalf("expected trim defaults, got %+v", req.Trim)
	}

	req, err = Decode([]byte(`{"input_paths":["b.flac"],"output_directory":"/o2","output_format":"wav"}`), Defaults{Overwrite: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(req.Inputs) != 1 || req.Inputs[0] != "b.flac" || req.OutputDir != "/o2" || req.Format != "wav" || !req.Overwrite {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestDecodeOperationParameters(t *testing.T) {
	req, err := Decode([]byte(`{
		"operation":"modify","files":["a.wav"],"speed":1.5,"pitch":-3,"cut_start":10,"cut_end":80,
		"overwrite_existing":false,"ffmpeg_path":" /opt/ffmpeg "
	}`), Defaults{Overwrite: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Speed != 1.5 || req.Pitch != -3 || req.CutStart != 10 || req.CutEnd != 80 || req.Overwrite || req.FFmpegPath != "/opt/ffmpeg" {
		t.Fatalf("unexpected modify request %+v", req)
	}

	req, err = Decode([]byte(`{"operation":"master","files":["a.wav"],"preset":"Podcast","parameters":{"target_lufs":-12,"apply_limiter":false}}`), Defaults{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Preset != "Podcast" || *req.Mastering.TargetLUFS != -12 || *req.Mastering.ApplyLimiter || req.Mastering.TruePeak != nil {
		t.Fatalf("unexpected master request %+v", req)
	}

	req, err = Decode([]byte(`{"operation":"trim","files":["a.wav"],"silence_threshold":-40,"minimum_silence_ms":250,"padding_ms":100}`), Defaults{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Trim != (filterchain.TrimParams{ThresholdDB: -40, MinimumSilenceMS: 250, PaddingMS: 100}) {
		t.Fatalf("unexpected trim params %+v", req.Trim)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]services.Code{
		`not json`:                           services.CodeJSON,
		`{"files":["a"]} {"files":["b"]}`:    services.CodeJSON,
		`{"speed":"fast"}`:                   services.CodeInvalidParameter,
		`{"operation":"modify","pitch":1.5}`: services.CodeInvalidParameter,
		`{"operation":"shred"}`:              services.CodeInvalidOperation,
	}
	for input, want := range cases {
		_, err := Decode([]byte(input), Defaults{})
		if services.CodeOf(err) != want {
			t.Errorf("Decode(%s) code = %s, want %s (%v)", input, services.CodeOf(err), want, err)
		}
		if services.ExitCode(err) != services.ExitInvalidArgs {
			t.Errorf("Decode(%s) exit = %d, want 2", input, services.ExitCode(err))
		}
	}
}

type countingRunner struct{ calls atomic.Int32 }

func (c *countingRunner) Run(_ context.Context, inv encoder.Invocation) (encoder.Outcome, error) {
	c.calls.Add(1)
	return encoder.Outcome{}, os.WriteFile(inv.Destination, []byte("out"), 0o644)
}

func TestExplicitZeroSpeedIsRejected(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(src, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(map[string]any{"operation": "modify", "files": []string{src}, "output": filepath.Join(dir, "out"), "speed": 0})
	if err != nil {
		t.Fatal(err)
	}
	req, err := Decode(raw, Defaults{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req.Speed != 0 {
		t.Fatalf("explicit speed overwritten: %v", req.Speed)
	}

	runner := &countingRunner{}
	_, err = jobs.New(jobs.Options{Runner: runner}).Run(context.Background(), req, nil)
	if services.CodeOf(err) != services.CodeInvalidParameter {
		t.Fatalf("code = %s, want INVALID_PARAMETER (%v)", services.CodeOf(err), err)
	}
	if services.ExitCode(err) != services.ExitInvalidArgs {
		t.Fatalf("exit = %d, want 2", services.ExitCode(err))
	}
	if n := runner.calls.Load(); n != 0 {
		t.Fatalf("runner called %d times", n)
	}
}
