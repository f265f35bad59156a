package deps

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"soundconverter/internal/services"
)

var stubScript = []byte("#!/bin/sh\nexit 0\n")

func writeStub(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, stubScript, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func noPath(string) (string, error) { return "", errors.New("not on PATH") }

func TestResolvePrefersRequestOverride(t *testing.T) {
	tmp := t.TempDir()
	override := writeStub(t, filepath.Join(tmp, "override", executableName("ffmpeg")))
	envBinary := writeStub(t, filepath.Join(tmp, "env", executableName("ffmpeg")))

	env, err := Resolve(Options{
		Override:  override,
		LookupEnv: envMap(map[string]string{EnvFFmpegBinary: envBinary}),
		LookPath:  noPath,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if env.FFmpeg.Path != override || env.FFmpeg.Source != SourceRequest {
		t.Fatalf("unexpected resolution: %+v", env.FFmpeg)
	}
}

func TestResolveSkipsMissingCandidates(t *testing.T) {
	tmp := t.TempDir()
	fromBin := writeStub(t, filepath.Join(tmp, "ffbin", executableName("ffmpeg")))

	env, err := Resolve(Options{
		Override: filepath.Join(tmp, "does-not-exist", "ffmpeg"),
		LookupEnv: envMap(map[string]string{
			EnvFFmpegBinary: filepath.Join(tmp, "missing-too"),
			EnvFFmpegBin:    fromBin,
		}),
		LookPath: noPath,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if env.FFmpeg.Path != fromBin || env.FFmpeg.Source != SourceEnv {
		t.Fatalf("unexpected resolution: %+v", env.FFmpeg)
	}
	if len(env.Tried) != 3 {
		t.Fatalf("expected three candidates tried, got %v", env.Tried)
	}
}

func TestResolveBundledDirectoryLayouts(t *testing.T) {
	layouts := map[string]func(dir string) string{
		"flat":   func(dir string) string { return filepath.Join(dir, executableName("ffmpeg")) },
		"bin":    func(dir string) string { return filepath.Join(dir, "bin", executableName("ffmpeg")) },
		"nested": func(dir string) string { return filepath.Join(dir, "ffmpeg", "bin", executableName("ffmpeg")) },
	}
	for name, layout := range layouts {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			want := writeStub(t, layout(dir))
			env, err := Resolve(Options{
				LookupEnv: envMap(map[string]string{EnvBundledDir: dir}),
				LookPath:  noPath,
			})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if env.FFmpeg.Path != want || env.FFmpeg.Source != SourceBundled {
				t.Fatalf("unexpected resolution: %+v", env.FFmpeg)
			}
		})
	}
}

func TestResolveFindsSiblingProbe(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeStub(t, filepath.Join(dir, executableName("ffmpeg")))
	ffprobe := writeStub(t, filepath.Join(dir, executableName("ffprobe")))

	env, err := Resolve(Options{ConfigBinary: ffmpeg, LookupEnv: envMap(nil), LookPath: noPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if env.FFmpeg.Source != SourceConfig {
		t.Fatalf("expected config source, got %+v", env.FFmpeg)
	}
	if !env.HasProbe() || env.FFprobe.Path != ffprobe || env.FFprobe.Source != SourceSibling {
		t.Fatalf("unexpected probe resolution: %+v", env.FFprobe)
	}
}

func TestResolveFallsBackToPath(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := writeStub(t, filepath.Join(binDir, executableName("ffmpeg")))
	t.Setenv("PATH", binDir)

	env, err := Resolve(Options{LookupEnv: envMap(nil)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if env.FFmpeg.Path != ffmpeg || env.FFmpeg.Source != SourcePath {
		t.Fatalf("unexpected resolution: %+v", env.FFmpeg)
	}
	if env.HasProbe() {
		t.Fatalf("expected no ffprobe, got %+v", env.FFprobe)
	}
}

func TestResolveMissingEncoder(t *testing.T) {
	_, err := Resolve(Options{LookupEnv: envMap(nil), LookPath: noPath})
	if err == nil {
		t.Fatal("expected missing encoder error")
	}
	if !errors.Is(err, services.ErrDependency) {
		t.Fatalf("expected dependency marker, got %v", err)
	}
	if services.CodeOf(err) != services.CodeFFmpegMissing {
		t.Fatalf("unexpected code %s", services.CodeOf(err))
	}
	if services.ExitCode(err) != services.ExitDependencyMissing {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestResolveIgnoresNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, stubScript, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Resolve(Options{Override: path, LookupEnv: envMap(nil), LookPath: noPath}); err == nil {
		t.Fatal("expected non-executable override to be skipped")
	}
}

func TestCheckEnvironment(t *testing.T) {
	statuses := CheckEnvironment(Options{LookupEnv: envMap(nil), LookPath: noPath})
	if len(statuses) != 2 {
		t.Fatalf("expected two statuses, got %d", len(statuses))
	}
	if statuses[0].Available || statuses[0].Detail == "" {
		t.Fatalf("expected ffmpeg unavailable with detail, got %#v", statuses[0])
	}
	if !statuses[1].Optional {
		t.Fatal("expected ffprobe to be optional")
	}
}
