package deps

import (
	"fmt"
	"strings"
)

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Source      Source `json:"source,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckEnvironment reports the encoder toolchain as dependency statuses.
func CheckEnvironment(opts Options) []Status {
	env, err := Resolve(opts)
	ffmpeg := Status{
		Name:        "FFmpeg",
		Command:     env.FFmpeg.Path,
		Description: "Required for every operation",
		Available:   err == nil,
		Source:      env.FFmpeg.Source,
	}
	if err != nil {
		ffmpeg.Command = "ffmpeg"
		ffmpeg.Detail = fmt.Sprintf("not found (tried %s); %s", strings.Join(env.Tried, ", "), InstallHint())
	}
	ffprobe := Status{
		Name:        "FFprobe",
		Command:     env.FFprobe.Path,
		Description: "Media inspection for modify and analyze; falls back to ffmpeg output parsing",
		Optional:    true,
		Available:   env.FFprobe.Path != "",
		Source:      env.FFprobe.Source,
	}
	if !ffprobe.Available {
		ffprobe.Command = "ffprobe"
		ffprobe.Detail = "binary \"ffprobe\" not found"
	}
	return []Status{ffmpeg, ffprobe}
}
