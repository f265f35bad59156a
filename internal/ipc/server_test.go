package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"soundconverter/internal/jobs"
	"soundconverter/internal/services"
)

var fixedClock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func decodeLines(t *testing.T, out *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var event map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("stdout line is not JSON: %q: %v", scanner.Text(), err)
		}
		events = append(events, event)
	}
	return events
}

func serve(t *testing.T, handler Handler, input string) (int, []map[string]any) {
	t.Helper()
	var out bytes.Buffer
	code := NewServer(handler, WithClock(fixedClock)).Serve(context.Background(), strings.NewReader(input), &out)
	return code, decodeLines(t, &out)
}

func unexpectedHandler(t *testing.T) Handler {
	return func(context.Context, jobs.Request, jobs.Sink) (jobs.Result, error) {
		t.Fatal("handler must not run")
		return jobs.Result{}, nil
	}
}

func TestEmptyInputReportsReady(t *testing.T) {
	code, events := serve(t, unexpectedHandler(t), "  \n\t")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if len(events) != 1 || events[0]["status"] != "ready" || events[0]["message"] != "Backend ready" {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestMalformedJSON(t *testing.T) {
	code, events := serve(t, unexpectedHandler(t), `{"operation": "convert",`)
	if code != services.ExitInvalidArgs {
		t.Fatalf("exit code %d, want 2", code)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the terminal event, got %v", events)
	}
	errBody := events[0]["error"].(map[string]any)
	if events[0]["status"] != "error" || errBody["code"] != "JSON_ERROR" {
		t.Fatalf("unexpected event %v", events[0])
	}
	if outputs := events[0]["outputs"].([]any); len(outputs) != 0 {
		t.Fatalf("expected empty outputs, got %v", outputs)
	}
}

func TestUnknownOperation(t *testing.T) {
	code, events := serve(t, unexpectedHandler(t), `{"operation":"explode","files":["a.wav"]}`)
	if code != services.ExitInvalidArgs {
		t.Fatalf("exit code %d", code)
	}
	if events[0]["error"].(map[string]any)["code"] != "INVALID_OPERATION" {
		t.Fatalf("unexpected event %v", events[0])
	}
}

func TestSuccessfulConvertStream(t *testing.T) {
	handler := func(_ context.Context, req jobs.Request, sink jobs.Sink) (jobs.Result, error) {
		if req.Operation != jobs.OpConvert || req.Format != "mp3" || req.OutputDir != "/tmp/out" {
			t.Fatalf("unexpected request %+v", req)
		}
		for _, status := range []jobs.ProgressStatus{jobs.StatusProcessing, jobs.StatusCompleted} {
			sink.Progress(jobs.Progress{Operation: req.Operation, Status: status, Index: 1, Total: 1, File: "/in/a.wav", Destination: "/tmp/out/a.mp3"})
		}
		return jobs.Result{Success: true, Message: "Saved file to /tmp/out/a.mp3", Outputs: []string{"/tmp/out/a.mp3"}}, nil
	}
	code, events := serve(t, handler, `{"input_paths":["/in/a.wav"],"output_directory":"/tmp/out","output_format":"mp3"}`)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %v", events)
	}
	if events[0]["event"] != "progress" || events[0]["status"] != "processing" || events[0]["index"] != float64(1) {
		t.Fatalf("unexpected first event %v", events[0])
	}
	if events[1]["status"] != "completed" {
		t.Fatalf("unexpected second event %v", events[1])
	}
	final := events[2]
	if final["status"] != "success" || final["operation"] != "convert" || final["operation_type"] != "convert" {
		t.Fatalf("unexpected terminal event %v", final)
	}
	if outputs := final["outputs"].([]any); len(outputs) != 1 || outputs[0] != "/tmp/out/a.mp3" {
		t.Fatalf("unexpected outputs %v", outputs)
	}
	if final["timestamp"] != "2026-03-01T12:00:00.000000Z" {
		t.Fatalf("unexpected timestamp %v", final["timestamp"])
	}
	if _, ok := final["data"]; ok {
		t.Fatal("data should be omitted when empty")
	}
}

func TestHandlerErrorMapsExitCodeAndDetails(t *testing.T) {
	handler := func(context.Context, jobs.Request, jobs.Sink) (jobs.Result, error) {
		err := services.New(services.ErrNotFound, services.CodeFileNotFound, "file not found: /x.wav", nil).With("file", "/x.wav")
		return jobs.Result{}, err
	}
	code, events := serve(t, handler, `{"operation":"trim","files":["/x.wav"]}`)
	if code != services.ExitNotFound {
		t.Fatalf("exit code %d, want 3", code)
	}
	body := events[0]["error"].(map[string]any)
	if body["code"] != "FILE_NOT_FOUND" || body["details"].(map[string]any)["file"] != "/x.wav" {
		t.Fatalf("unexpected error body %v", body)
	}
	if events[0]["operation"] != "trim" || events[0]["message"] != "file not found: /x.wav" {
		t.Fatalf("unexpected event %v", events[0])
	}
}

func TestPanicBecomesFatalError(t *testing.T) {
	handler := func(context.Context, jobs.Request, jobs.Sink) (jobs.Result, error) {
		panic("kaboom")
	}
	code, events := serve(t, handler, `{"files":["a.wav"]}`)
	if code != services.ExitGeneral {
		t.Fatalf("exit code %d", code)
	}
	body := events[0]["error"].(map[string]any)
	if body["code"] != "FATAL_ERROR" {
		t.Fatalf("unexpected code %v", body["code"])
	}
	if trace, _ := body["details"].(map[string]any)["traceback"].(string); !strings.Contains(trace, "goroutine") {
		t.Fatalf("expected stack trace, got %q", trace)
	}
}

func TestRejectReportsConfigError(t *testing.T) {
	var out bytes.Buffer
	err := services.New(services.ErrConfiguration, services.CodeConfig, "load config", nil)
	code := NewServer(unexpectedHandler(t), WithClock(fixedClock)).Reject(&out, err)
	if code != services.ExitInvalidArgs {
		t.Fatalf("exit code %d, want 2", code)
	}
	events := decodeLines(t, &out)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	body, _ := events[0]["error"].(map[string]any)
	if events[0]["operation"] != "init" || body["code"] != "CONFIG_ERROR" {
		t.Fatalf("unexpected event %v", events[0])
	}
}
