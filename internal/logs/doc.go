// Package logs reads the optional backend log file.
//
// Last returns the final N lines with bounded memory, Follow polls for lines
// appended after an offset until its context ends, and Match narrows lines to
// one batch by request ID in both the console and JSON log formats.
package logs
