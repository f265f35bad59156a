// Package ffprobe reads audio stream metadata.
//
// Inspect runs ffprobe and decodes its JSON output into Result. When ffprobe
// is unavailable or fails, Probe falls back to parsing the banner ffmpeg
// prints for `ffmpeg -i <file> -f null -`. Both paths yield an Info, the
// flat summary used by the analyze and modify operations.
package ffprobe
