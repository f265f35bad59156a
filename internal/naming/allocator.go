package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Style selects how a colliding stem is disambiguated.
type Style int

const (
	// StyleParen appends " (1)", " (2)", ...
	StyleParen Style = iota
	// StyleUnderscore appends "_1", "_2", ...
	StyleUnderscore
)

// ParseStyle maps a config value onto a Style. Unknown values fall back to
// StyleParen.
func ParseStyle(value string) Style {
	if strings.EqualFold(strings.TrimSpace(value), "underscore") {
		return StyleUnderscore
	}
	return StyleParen
}

func (s Style) decorate(stem string, n int) string {
	if s == StyleUnderscore {
		return fmt.Sprintf("%s_%d", stem, n)
	}
	return fmt.Sprintf("%s (%d)", stem, n)
}

// maxAttempts bounds the disambiguation search.
const maxAttempts = 10000

// Allocator hands out destination paths for one batch. A path is considered
// taken when it exists on disk or was already handed out by this allocator.
// All methods are goroutine-safe.
type Allocator struct {
	mu        sync.Mutex
	overwrite bool
	style     Style
	allocated map[string]string // destination → source that owns it
	exists    func(string) bool
}

// Option customises an Allocator.
type Option func(*Allocator)

// WithStyle overrides the disambiguator style.
func WithStyle(style Style) Option {
	return func(a *Allocator) { a.style = style }
}

// WithExistsFunc overrides the on-disk existence check.
func WithExistsFunc(fn func(string) bool) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.exists = fn
		}
	}
}

// NewAllocator creates an allocator scoped to one batch.
func NewAllocator(overwrite bool, opts ...Option) *Allocator {
	a := &Allocator{
		overwrite: overwrite,
		allocated: make(map[string]string),
		exists:    pathExists,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocation is the result of one Allocate call.
type Allocation struct {
	Path string
	// Collided is set when overwrite is enabled and Path was already handed
	// out to a different source in this batch.
	Collided bool
	// PreviousOwner is the source that first claimed Path when Collided.
	PreviousOwner string
}

// Allocate composes "{stem}{suffix}.{ext}" inside outputDir for source. An
// empty ext keeps the source extension. Unless overwrite is enabled, a taken
// candidate is retried with a disambiguator until a free path is found.
func (a *Allocator) Allocate(source, outputDir, ext, suffix string) (Allocation, error) {
	if strings.TrimSpace(source) == "" {
		return Allocation{}, errors.New("allocate destination: empty source path")
	}
	base := filepath.Base(source)
	srcExt := filepath.Ext(base)
	stem := SanitizeStem(strings.TrimSuffix(base, srcExt) + suffix)

	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = strings.TrimPrefix(srcExt, ".")
	}
	dotExt := ""
	if ext != "" {
		dotExt = "." + ext
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := filepath.Join(outputDir, stem+dotExt)
	if a.overwrite {
		owner, taken := a.allocated[candidate]
		a.allocated[candidate] = source
		if taken && owner != source {
			return Allocation{Path: candidate, Collided: true, PreviousOwner: owner}, nil
		}
		return Allocation{Path: candidate}, nil
	}

	for n := 1; a.taken(candidate); n++ {
		if n > maxAttempts {
			return Allocation{}, fmt.Errorf("allocate destination for %s: no free name after %d attempts", source, maxAttempts)
		}
		candidate = filepath.Join(outputDir, a.style.decorate(stem, n)+dotExt)
	}
	a.allocated[candidate] = source
	return Allocation{Path: candidate}, nil
}

// Allocated returns the number of destinations handed out so far.
func (a *Allocator) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.allocated)
}

func (a *Allocator) taken(candidate string) bool {
	if _, ok := a.allocated[candidate]; ok {
		return true
	}
	return a.exists(candidate)
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
