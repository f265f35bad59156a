package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"soundconverter/internal/services"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func denyAccess(t *testing.T, denied string) {
	t.Helper()
	original := access
	access = func(path string, mode uint32) error {
		if path == denied {
			return unix.EACCES
		}
		return original(path, mode)
	}
	t.Cleanup(func() { access = original })
}

func TestInputFilesAcceptsSupportedAudio(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.WAV")
	b := filepath.Join(dir, "b.flac")
	writeFile(t, a, 10)
	writeFile(t, b, 10)

	if err := InputFiles([]string{a, b}, 1024); err != nil {
		t.Fatalf("InputFiles: %v", err)
	}
}

func TestInputFilesClassification(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.mp3")
	writeFile(t, big, 2048)
	text := filepath.Join(dir, "notes.txt")
	writeFile(t, text, 1)
	locked := filepath.Join(dir, "locked.ogg")
	writeFile(t, locked, 1)
	denyAccess(t, locked)

	cases := []struct {
		name   string
		paths  []string
		code   services.Code
		marker error
		exit   int
	}{
		{"empty", nil, services.CodeNoInput, services.ErrValidation, services.ExitInvalidArgs},
		{"missing", []string{filepath.Join(dir, "nope.wav")}, services.CodeFileNotFound, services.ErrNotFound, services.ExitNotFound},
		{"directory", []string{dir}, services.CodeInvalidAudio, services.ErrValidation, services.ExitInvalidArgs},
		{"extension", []string{text}, services.CodeInvalidFormat, services.ErrValidation, services.ExitInvalidArgs},
		{"too large", []string{big}, services.CodeFileTooLarge, services.ErrFileRejected, services.ExitGeneral},
		{"unreadable", []string{locked}, services.CodeFileAccess, services.ErrPermission, services.ExitPermissionDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := InputFiles(tc.paths, 1024)
			if err == nil {
				t.Fatal("expected error")
			}
			if services.CodeOf(err) != tc.code {
				t.Fatalf("code = %s, want %s (%v)", services.CodeOf(err), tc.code, err)
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected marker %v, got %v", tc.marker, err)
			}
			if services.ExitCode(err) != tc.exit {
				t.Fatalf("exit = %d, want %d", services.ExitCode(err), tc.exit)
			}
		})
	}
}

func TestInputFileSizeLimitDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.wav")
	writeFile(t, path, 4096)
	if err := InputFile(path, 0); err != nil {
		t.Fatalf("expected no size limit, got %v", err)
	}
}

func TestOutputDirectoryCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	if err := OutputDirectory(dir); err != nil {
		t.Fatalf("OutputDirectory: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory created: %v", err)
	}
	if err := OutputDirectory(dir); err != nil {
		t.Fatalf("expected idempotent creation: %v", err)
	}
}

func TestOutputDirectoryRejectsUnwritable(t *testing.T) {
	dir := t.TempDir()
	denyAccess(t, dir)
	err := OutputDirectory(dir)
	if services.CodeOf(err) != services.CodeFileAccess {
		t.Fatalf("expected FILE_ACCESS_DENIED, got %v", err)
	}
	if err := OutputDirectory(" "); services.CodeOf(err) != services.CodeInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER for blank dir, got %v", err)
	}
}
