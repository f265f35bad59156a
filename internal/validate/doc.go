// Package validate performs the static checks that run before any ffmpeg
// process starts: input files, the output directory, and operation
// parameters.
package validate
