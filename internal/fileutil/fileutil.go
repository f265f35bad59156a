// Package fileutil holds the filesystem primitives the encoder relies on to
// publish outputs in place: path identity checks and temp sibling naming.
package fileutil

import (
	"os"
	"path/filepath"
	"strings"
)

// SamePath reports whether a and b refer to the same file. Existing files are
// compared by identity so hard links and symlinks match; otherwise the
// cleaned absolute paths are compared.
func SamePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(infoA, infoB)
	}
	return resolve(a) == resolve(b)
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// The file may not exist yet; resolve its directory instead.
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

// TempSibling returns "<dir>/<stem>.tmp<ext>" next to path.
func TempSibling(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+".tmp"+ext)
}

// Replace moves src over dst. src is expected to be a TempSibling of dst, so
// both live in the same directory and the rename is atomic.
func Replace(src, dst string) error {
	return os.Rename(src, dst)
}
