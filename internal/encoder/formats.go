package encoder

import (
	"slices"
	"sort"
	"strings"
)

// Format describes how ffmpeg writes one output container.
type Format struct {
	Name           string
	Muxer          string
	Codec          string
	DefaultBitrate string
}

// Lossless reports whether the format ignores bitrate settings.
func (f Format) Lossless() bool {
	return f.DefaultBitrate == ""
}

// Extension returns the file extension without a leading dot.
func (f Format) Extension() string {
	return f.Name
}

var formats = map[string]Format{
	"mp3":  {Name: "mp3", Muxer: "mp3", Codec: "libmp3lame", DefaultBitrate: "192k"},
	"aac":  {Name: "aac", Muxer: "adts", Codec: "aac", DefaultBitrate: "192k"},
	"m4a":  {Name: "m4a", Muxer: "ipod", Codec: "aac", DefaultBitrate: "192k"},
	"wav":  {Name: "wav", Muxer: "wav", Codec: "pcm_s16le"},
	"flac": {Name: "flac", Muxer: "flac", Codec: "flac"},
	"ogg":  {Name: "ogg", Muxer: "ogg", Codec: "libvorbis", DefaultBitrate: "192k"},
	"opus": {Name: "opus", Muxer: "opus", Codec: "libopus", DefaultBitrate: "128k"},
	"wma":  {Name: "wma", Muxer: "asf", Codec: "wmav2", DefaultBitrate: "192k"},
	"aiff": {Name: "aiff", Muxer: "aiff", Codec: "pcm_s16be"},
}

// LookupFormat resolves a format name case-insensitively, ignoring a leading dot.
func LookupFormat(name string) (Format, bool) {
	f, ok := formats[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")]
	return f, ok
}

// FormatNames lists the supported output formats in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns the post-input ffmpeg options for the format. An empty
// bitrate selects the default; lossless formats never carry -b:a.
func (f Format) Options(bitrate string) []string {
	opts := []string{"-c:a", f.Codec}
	if !f.Lossless() {
		if strings.TrimSpace(bitrate) == "" {
			bitrate = f.DefaultBitrate
		}
		opts = append(opts, "-b:a", bitrate)
	}
	return append(opts, "-f", f.Muxer)
}

// StandardBitrates are the bitrate presets offered to callers.
var StandardBitrates = []string{"32k", "64k", "96k", "128k", "160k", "192k", "256k", "320k"}

// IsStandardBitrate reports whether value is one of StandardBitrates.
func IsStandardBitrate(value string) bool {
	return slices.Contains(StandardBitrates, value)
}
