package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"soundconverter/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SOUNDCONVERTER_CONFIG", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "soundconverter")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Encoder.TimeoutSeconds != 600 {
		t.Fatalf("unexpected timeout: %d", cfg.Encoder.TimeoutSeconds)
	}
	if cfg.Batch.MaxConcurrentFiles != 1 {
		t.Fatalf("expected sequential default, got %d", cfg.Batch.MaxConcurrentFiles)
	}
	if cfg.Batch.OverwriteExisting {
		t.Fatal("expected overwrite disabled by default")
	}
	if cfg.Naming.Disambiguator != config.DisambiguatorParen {
		t.Fatalf("unexpected disambiguator: %q", cfg.Naming.Disambiguator)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.MaxFileSizeBytes() != 2000*1024*1024 {
		t.Fatalf("unexpected size limit: %d", cfg.MaxFileSizeBytes())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SOUNDCONVERTER_LOG_LEVEL", "")

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[encoder]
binary = "/opt/ffmpeg/bin/ffmpeg"
bin_dir = "~/bundled"
timeout_seconds = 30

[batch]
max_concurrent_files = 4
overwrite_existing = true

[naming]
disambiguator = "Underscore"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Encoder.Binary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected binary: %q", cfg.Encoder.Binary)
	}
	if cfg.Encoder.BinDir != filepath.Join(tempHome, "bundled") {
		t.Fatalf("expected bin dir expanded, got %q", cfg.Encoder.BinDir)
	}
	if cfg.EncoderTimeout().Seconds() != 30 {
		t.Fatalf("unexpected timeout: %v", cfg.EncoderTimeout())
	}
	if cfg.Batch.MaxConcurrentFiles != 4 || !cfg.Batch.OverwriteExisting {
		t.Fatalf("unexpected batch section: %+v", cfg.Batch)
	}
	if cfg.Naming.Disambiguator != config.DisambiguatorUnderscore {
		t.Fatalf("expected normalized disambiguator, got %q", cfg.Naming.Disambiguator)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestLoadHonoursConfigEnvAndLogLevelOverride(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "custom.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SOUNDCONVERTER_CONFIG", configPath)
	t.Setenv("SOUNDCONVERTER_LOG_LEVEL", "warn")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected env config path, got %q exists=%v", resolved, exists)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env log level override, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"concurrency": func(c *config.Config) { c.Batch.MaxConcurrentFiles = 99 },
		"timeout":     func(c *config.Config) { c.Encoder.TimeoutSeconds = -1 },
		"naming":      func(c *config.Config) { c.Naming.Disambiguator = "dash" },
		"log format":  func(c *config.Config) { c.Logging.Format = "xml" },
		"log level":   func(c *config.Config) { c.Logging.Level = "trace" },
		"retention":   func(c *config.Config) { c.History.RetentionDays = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if parsed.Encoder.TimeoutSeconds != 600 {
		t.Fatalf("unexpected sample timeout: %d", parsed.Encoder.TimeoutSeconds)
	}
	if !strings.Contains(string(data), "[naming]") {
		t.Fatal("expected naming section in sample")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "timeout_seconds = 600") {
		t.Fatalf("unexpected encoded config:\n%s", data)
	}
}
