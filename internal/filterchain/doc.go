// Package filterchain builds the ffmpeg audio filter expressions used by the
// modify, trim, and master operations.
//
// Build turns a speed ratio and a pitch shift into asetrate/atempo primitives,
// keeping every atempo factor inside the [0.5, 2.0] range ffmpeg accepts.
// Mastering and silence-trim graphs are composed by MasteringGraph and
// TrimGraph.
package filterchain
