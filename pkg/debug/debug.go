// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-arucogl/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Markers controls the per-frame marker logs (counts, poses, orbit radius).
// They fire at frame rate, so they sit behind --debug-markers.
var Markers bool

// Log writes a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// MarkerLog writes a debug record only if marker debugging is enabled
func MarkerLog(msg string, args ...any) {
	if Markers {
		log.Debug(msg, args...)
	}
}
