// Package main hosts the soundconverter CLI entrypoint and command graph.
//
// Invoked without a subcommand the binary runs in backend mode: it reads one
// JSON request from stdin, streams JSON-line events to stdout, and logs to
// stderr. The Cobra subcommands wrap the same pipeline for terminal use
// (run), report the resolved toolchain (deps), scaffold configuration
// (config), and inspect the local batch ledger (history).
package main
