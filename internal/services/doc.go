// Package services defines the shared error taxonomy and context helpers used
// by every batch component.
//
// Key responsibilities:
//   - Sentinel markers plus the Error type that carries a machine code, a
//     human message, and structured details. ExitCode and CodeOf translate any
//     error into the process exit status and wire code the caller receives.
//   - Context helpers that stamp request IDs, operation names, and work item
//     positions so log lines can be correlated with progress events.
//
// Wrap failures through these helpers so the terminal event, the exit status,
// and the history ledger all agree on how a batch ended.
package services
