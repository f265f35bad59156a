package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	code, out, _ := runCLI(t, []string{"--config", env.configPath, "config", "validate"}, "")
	if code != 0 {
		t.Fatalf("config validate exit %d", code)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	code, out, _ = runCLI(t, []string{"config", "init", "--path", target}, "")
	if code != 0 {
		t.Fatalf("config init exit %d", code)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	code, _, stderr := runCLI(t, []string{"config", "init", "--path", target}, "")
	if code != 1 {
		t.Fatalf("expected refusal to overwrite, got exit %d", code)
	}
	requireContains(t, stderr, "already exists")
}

func TestConfigShowRendersTOML(t *testing.T) {
	env := setupCLITestEnv(t)

	code, out, _ := runCLI(t, []string{"--config", env.configPath, "config", "show"}, "")
	if code != 0 {
		t.Fatalf("config show exit %d", code)
	}
	requireContains(t, out, "[encoder]")
	requireContains(t, out, env.cfg.Encoder.Binary)
}
