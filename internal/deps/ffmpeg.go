package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"soundconverter/internal/services"
)

// Source names where a binary was found.
type Source string

const (
	SourceRequest Source = "request"
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceBundled Source = "bundled"
	SourceSibling Source = "sibling"
	SourcePath    Source = "path"
)

// Environment variables consulted during resolution.
const (
	EnvFFmpegBinary = "FFMPEG_BINARY"
	EnvFFmpegBin    = "FFMPEG_BIN"
	EnvFFprobe      = "FFPROBE_BINARY"
	EnvBundledDir   = "SOUNDCONVERTER_BIN_DIR"
)

// Resolution is one resolved executable.
type Resolution struct {
	Path   string `json:"path"`
	Source Source `json:"source"`
}

// Environment is the immutable toolchain handed to every component that
// launches a subprocess. It is built once per process and never mutates PATH.
type Environment struct {
	FFmpeg  Resolution
	FFprobe Resolution
	Tried   []string
}

// HasProbe reports whether an ffprobe binary was found.
func (e Environment) HasProbe() bool {
	return e.FFprobe.Path != ""
}

// Options feeds the resolution chain.
type Options struct {
	Override      string
	ConfigBinary  string
	ConfigFFprobe string
	BinDir        string

	LookupEnv func(string) (string, bool)
	LookPath  func(string) (string, error)
}

// WithOverride returns a copy of opts carrying a per-request ffmpeg override.
func (o Options) WithOverride(path string) Options {
	o.Override = strings.TrimSpace(path)
	return o
}

type candidate struct {
	path   string
	source Source
}

// Resolve walks the ffmpeg candidates in order: request override, FFMPEG_BINARY,
// FFMPEG_BIN, configured binary, bundled directory, PATH. The first candidate
// that exists as an executable wins. ffprobe is resolved afterwards and is
// optional.
func Resolve(opts Options) (Environment, error) {
	opts = opts.withDefaults()
	var env Environment

	for _, c := range opts.ffmpegCandidates() {
		env.Tried = append(env.Tried, string(c.source)+":"+c.path)
		if path, ok := opts.usable(c.path); ok {
			env.FFmpeg = Resolution{Path: path, Source: c.source}
			break
		}
	}
	if env.FFmpeg.Path == "" {
		env.Tried = append(env.Tried, string(SourcePath)+":ffmpeg")
		if path, err := opts.LookPath(executableName("ffmpeg")); err == nil {
			env.FFmpeg = Resolution{Path: path, Source: SourcePath}
		}
	}

	env.FFprobe = opts.resolveProbe(env.FFmpeg)

	if env.FFmpeg.Path == "" {
		err := services.New(services.ErrDependency, services.CodeFFmpegMissing, "ffmpeg executable not found", nil).
			With("tried", env.Tried).
			With("hint", InstallHint())
		return env, err
	}
	return env, nil
}

func (o Options) withDefaults() Options {
	if o.LookupEnv == nil {
		o.LookupEnv = os.LookupEnv
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	return o
}

func (o Options) env(key string) string {
	value, ok := o.LookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func (o Options) ffmpegCandidates() []candidate {
	var out []candidate
	add := func(path string, source Source) {
		if path = strings.TrimSpace(path); path != "" {
			out = append(out, candidate{path: path, source: source})
		}
	}
	add(o.Override, SourceRequest)
	add(o.env(EnvFFmpegBinary), SourceEnv)
	add(o.env(EnvFFmpegBin), SourceEnv)
	add(o.ConfigBinary, SourceConfig)
	bundled := o.env(EnvBundledDir)
	if bundled == "" {
		bundled = strings.TrimSpace(o.BinDir)
	}
	if bundled != "" {
		for _, path := range bundledCandidates(bundled, "ffmpeg") {
			add(path, SourceBundled)
		}
	}
	return out
}

func (o Options) resolveProbe(ffmpeg Resolution) Resolution {
	for _, c := range []candidate{
		{path: o.env(EnvFFprobe), source: SourceEnv},
		{path: strings.TrimSpace(o.ConfigFFprobe), source: SourceConfig},
	} {
		if c.path == "" {
			continue
		}
		if path, ok := o.usable(c.path); ok {
			return Resolution{Path: path, Source: c.source}
		}
	}
	if ffmpeg.Path != "" {
		sibling := filepath.Join(filepath.Dir(ffmpeg.Path), executableName("ffprobe"))
		if path, ok := o.usable(sibling); ok {
			return Resolution{Path: path, Source: SourceSibling}
		}
	}
	if path, err := o.LookPath(executableName("ffprobe")); err == nil {
		return Resolution{Path: path, Source: SourcePath}
	}
	return Resolution{}
}

// usable accepts absolute or relative paths that point at an executable file.
// Bare command names are resolved through LookPath.
func (o Options) usable(path string) (string, bool) {
	if !strings.ContainsRune(path, filepath.Separator) && !strings.ContainsRune(path, '/') {
		resolved, err := o.LookPath(path)
		return resolved, err == nil
	}
	info, err := os.Stat(path)
	if err != nil || !isExecutable(info) {
		return "", false
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, true
}

func bundledCandidates(dir, name string) []string {
	exe := executableName(name)
	return []string{
		filepath.Join(dir, exe),
		filepath.Join(dir, "bin", exe),
		filepath.Join(dir, name, "bin", exe),
	}
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// InstallHint returns a platform-specific installation suggestion.
func InstallHint() string {
	switch runtime.GOOS {
	case "darwin":
		return "install with: brew install ffmpeg"
	case "linux":
		return "install with: apt-get install ffmpeg (Debian/Ubuntu) or dnf install ffmpeg (Fedora)"
	case "windows":
		return "download from https://ffmpeg.org/download.html and add it to PATH or set FFMPEG_BINARY"
	default:
		return "download from https://ffmpeg.org/download.html"
	}
}
