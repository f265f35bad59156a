// Package encoder runs ffmpeg for a single work item.
//
// Invoker builds the command line, streams ffmpeg diagnostics into the
// logger on a dedicated goroutine, enforces the per-file timeout, and maps
// the exit status onto classified services errors. When source and
// destination are the same file, ffmpeg writes to a temporary sibling that
// replaces the destination only after a clean exit.
//
// Formats holds the container/codec table used by the convert operation.
package encoder
