package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// The preview engine writes rendered frames through it so cache
// behavior can be inspected offline.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves a rendered frame keyed by its cache bucket.
	SaveFrame(bucket int64, img image.Image) error

	// SaveReport saves a diagnostics report (cache stats, decode
	// session stats) as JSON.
	SaveReport(data []byte) error
}
