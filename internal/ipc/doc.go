// Package ipc implements the stdin/stdout protocol spoken by the backend.
//
// A caller writes one JSON request to stdin and reads newline-delimited JSON
// events from stdout: zero or more progress events followed by exactly one
// terminal event (success or error). Logs never touch stdout. Empty stdin is
// a health check answered with a ready event.
//
// The server decodes the request, hands it to a Handler, forwards progress
// through a mutex-guarded Writer, and maps the outcome onto the documented
// exit codes. Panics inside the handler are recovered and reported as
// FATAL_ERROR.
package ipc
