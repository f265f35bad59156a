package ffprobe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const unknownCodec = "unknown"

// Info is the audio summary reported for one file.
type Info struct {
	File       string  `json:"file"`
	Duration   float64 `json:"duration"`
	BitRate    int64   `json:"bit_rate"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sample_rate"`
	Codec      string  `json:"codec"`
}

// Prober resolves Info for a file. FFprobe may be empty, in which case only
// the ffmpeg banner is parsed.
type Prober struct {
	FFprobe string
	FFmpeg  string
}

// Probe tries ffprobe first and falls back to the ffmpeg banner.
func (p Prober) Probe(ctx context.Context, path string) (Info, error) {
	var probeErr error
	if strings.TrimSpace(p.FFprobe) != "" {
		result, err := Inspect(ctx, p.FFprobe, path)
		if err == nil {
			return result.Info(path), nil
		}
		probeErr = err
	}
	if strings.TrimSpace(p.FFmpeg) == "" {
		if probeErr != nil {
			return Info{}, probeErr
		}
		return Info{}, fmt.Errorf("probe %s: no ffprobe or ffmpeg binary configured", path)
	}
	info, err := p.probeBanner(ctx, path)
	if err != nil {
		if probeErr != nil {
			return Info{}, fmt.Errorf("%w (ffprobe: %v)", err, probeErr)
		}
		return Info{}, err
	}
	return info, nil
}

func (p Prober) probeBanner(ctx context.Context, path string) (Info, error) {
	cmd := commandContext(ctx, p.FFmpeg, "-hide_banner", "-i", path, "-f", "null", "-")
	var stderr strings.Builder
	cmd.Stderr = &stderr
	// ffmpeg may exit non-zero for inputs it can still describe.
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Info{}, ctx.Err()
	}
	info, ok := ParseBanner(path, stderr.String())
	if !ok {
		if runErr != nil {
			return Info{}, fmt.Errorf("ffmpeg probe %s: %w", path, runErr)
		}
		return Info{}, fmt.Errorf("ffmpeg probe %s: no stream information", path)
	}
	return info, nil
}

var (
	durationPattern = regexp.MustCompile(`Duration:\s+(\d{2}):(\d{2}):(\d{2}(?:\.\d+)?)`)
	bitratePattern  = regexp.MustCompile(`bitrate:\s+(\d+)\s+kb/s`)
	audioPattern    = regexp.MustCompile(`Stream.*Audio:\s+([^,]+),\s+(\d+)\s+Hz,\s+([^,]+),`)
)

// ParseBanner extracts Info from ffmpeg's stderr banner. ok is false when
// neither a duration nor an audio stream line was found.
func ParseBanner(path, output string) (Info, bool) {
	info := Info{File: path, Codec: unknownCodec}
	found := false

	if m := durationPattern.FindStringSubmatch(output); m != nil {
		hours, _ := strconv.ParseFloat(m[1], 64)
		minutes, _ := strconv.ParseFloat(m[2], 64)
		seconds, _ := strconv.ParseFloat(m[3], 64)
		info.Duration = hours*3600 + minutes*60 + seconds
		found = true
	}
	if m := bitratePattern.FindStringSubmatch(output); m != nil {
		kbps, _ := strconv.ParseInt(m[1], 10, 64)
		info.BitRate = kbps * 1000
	}
	if m := audioPattern.FindStringSubmatch(output); m != nil {
		if fields := strings.Fields(m[1]); len(fields) > 0 {
			info.Codec = fields[0]
		}
		info.SampleRate, _ = strconv.Atoi(m[2])
		info.Channels = channelCount(m[3])
		found = true
	}
	return info, found
}

func channelCount(layout string) int {
	layout = strings.ToLower(strings.TrimSpace(layout))
	switch {
	case strings.Contains(layout, "stereo"):
		return 2
	case strings.Contains(layout, "mono"):
		return 1
	case strings.HasPrefix(layout, "5.1"):
		return 6
	case strings.HasPrefix(layout, "7.1"):
		return 8
	}
	if n, err := strconv.Atoi(strings.Fields(layout + " channels")[0]); err == nil {
		return n
	}
	return 0
}
