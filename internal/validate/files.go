package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sys/unix"

	"soundconverter/internal/services"
)

// SupportedExtensions lists the accepted input extensions.
var SupportedExtensions = []string{".aac", ".aiff", ".alac", ".flac", ".m4a", ".mp3", ".ogg", ".opus", ".wav", ".wma"}

// access is swapped in tests.
var access = unix.Access

// InputFiles validates every source path. maxBytes <= 0 disables the size
// check.
func InputFiles(paths []string, maxBytes int64) error {
	if len(paths) == 0 {
		return services.New(services.ErrValidation, services.CodeNoInput, "no input files provided", nil)
	}
	for _, path := range paths {
		if err := InputFile(path, maxBytes); err != nil {
			return err
		}
	}
	return nil
}

// InputFile checks that path exists, is a readable regular file with a
// supported extension, and fits within maxBytes.
func InputFile(path string, maxBytes int64) error {
	if strings.TrimSpace(path) == "" {
		return services.New(services.ErrValidation, services.CodeInvalidParameter, "input path cannot be empty", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return statError(path, err)
	}
	if !info.Mode().IsRegular() {
		return services.New(services.ErrValidation, services.CodeInvalidAudio, fmt.Sprintf("not a regular file: %s", path), nil).
			With("file", path)
	}
	if err := access(path, unix.R_OK); err != nil {
		return services.New(services.ErrPermission, services.CodeFileAccess, fmt.Sprintf("file is not readable: %s", path), err).
			With("file", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedExtensions, ext) {
		return services.New(services.ErrValidation, services.CodeInvalidFormat, fmt.Sprintf("unsupported file format: %q", ext), nil).
			With("file", path).
			With("supported", SupportedExtensions)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return services.New(services.ErrFileRejected, services.CodeFileTooLarge,
			fmt.Sprintf("file size (%.2f MB) exceeds limit of %d MB", float64(info.Size())/(1024*1024), maxBytes/(1024*1024)), nil).
			With("file", path).
			With("size_bytes", info.Size())
	}
	return nil
}

// OutputDirectory creates dir when missing and checks it is writable.
func OutputDirectory(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return services.New(services.ErrValidation, services.CodeInvalidParameter, "output directory is required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return services.New(services.ErrPermission, services.CodeFileAccess, fmt.Sprintf("cannot create output directory: %s", dir), err).
				With("directory", dir)
		}
		return services.New(services.ErrValidation, services.CodeInvalidParameter, fmt.Sprintf("cannot create output directory: %s", dir), err).
			With("directory", dir)
	}
	if err := access(dir, unix.W_OK|unix.X_OK); err != nil {
		return services.New(services.ErrPermission, services.CodeFileAccess, fmt.Sprintf("output directory is not writable: %s", dir), err).
			With("directory", dir)
	}
	return nil
}

func statError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return services.New(services.ErrNotFound, services.CodeFileNotFound, fmt.Sprintf("file not found: %s", path), err).
			With("file", path)
	case errors.Is(err, fs.ErrPermission):
		return services.New(services.ErrPermission, services.CodeFileAccess, fmt.Sprintf("permission denied: %s", path), err).
			With("file", path)
	default:
		return services.New(services.ErrValidation, services.CodeInvalidAudio, fmt.Sprintf("cannot inspect file: %s", path), err).
			With("file", path)
	}
}
