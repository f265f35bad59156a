// Package jobs turns one batch request into ffmpeg work and reports progress.
//
// The orchestrator walks Validating → Preparing → items → Aggregating for
// every request:
//   - Validating checks inputs and operation parameters before any process
//     starts.
//   - Preparing creates the output directory and allocates one destination
//     per source through naming.Allocator.
//   - Each item emits a "processing" event, runs ffmpeg through
//     encoder.Invoker, and emits "completed" on success. The first failure
//     stops the batch.
//   - Aggregating builds the Result message and output list.
//
// Analyze requests skip the encoder entirely; each file is probed and a
// per-file report (or failure record) is returned in Result.Data.
package jobs
