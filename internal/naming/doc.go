// Package naming computes collision-free destination paths for a batch.
//
// An Allocator is created per batch. It checks two sources before accepting a
// candidate: the filesystem and the set of paths it already handed out, since
// several inputs in one batch can map to the same name before any file is
// written. With overwrite enabled no search runs and same-batch collisions are
// reported back to the caller instead.
package naming
