// Package fingerprint computes a deterministic identity for the
// renderable state of a composition at a quantized time. Two snapshots
// that would render identically produce equal fingerprints; this is
// the cache-correctness invariant the frame cache relies on.
package fingerprint

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/user/previewcache/pkg/timeline"
)

// DefaultResolution is the default cache granularity in buckets per
// second.
const DefaultResolution = 30

// Engine computes fingerprints at a fixed time resolution.
// The zero value is not usable; construct with New.
type Engine struct {
	resolution int
}

// New creates an Engine with the given resolution (buckets per second).
// Non-positive values fall back to DefaultResolution.
func New(resolution int) *Engine {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Engine{resolution: resolution}
}

// Resolution returns the engine's buckets-per-second granularity.
func (e *Engine) Resolution() int { return e.resolution }

// Bucket quantizes t (seconds) to the engine's integer frame-key.
// The epsilon keeps a bucket's own left edge (bucket/resolution, which
// float arithmetic can land a hair below the exact value) inside that
// bucket.
func (e *Engine) Bucket(t float64) int64 {
	return int64(math.Floor(t*float64(e.resolution) + 1e-9))
}

// BucketTime returns the continuous time of a bucket's left edge.
func (e *Engine) BucketTime(bucket int64) float64 {
	return float64(bucket) / float64(e.resolution)
}

// Compute derives the fingerprint of snap at time t. It is pure and
// O(active elements): only tracks and elements that contribute to the
// rendered output at the quantized time enter the digest, in canonical
// track/element iteration order. Muted tracks and hidden elements are
// excluded entirely. An empty active set is a valid fingerprint of its
// own (a pure background frame).
func (e *Engine) Compute(snap *timeline.Snapshot, t float64) string {
	bucket := e.Bucket(t)
	bt := e.BucketTime(bucket)

	d := xxhash.New()
	writeInt(d, bucket)

	for _, track := range snap.Tracks {
		if track.Muted {
			continue
		}
		for _, el := range track.Elements {
			base := el.Base()
			if base.Hidden || !base.ActiveAt(bt) {
				continue
			}
			writeElement(d, el)
		}
	}

	writeSettings(d, snap.Settings)
	writeString(d, snap.SceneID)

	return strconv.FormatUint(d.Sum64(), 16)
}

// writeElement digests the render-affecting fields of one element,
// dispatching exhaustively over the element kinds.
func writeElement(d *xxhash.Digest, el timeline.Element) {
	base := el.Base()
	writeString(d, base.ID)
	writeInt(d, int64(el.Kind()))
	writeFloat(d, base.Start)
	writeFloat(d, base.TrimIn)
	writeFloat(d, base.TrimOut)
	writeFloat(d, base.Duration)

	switch v := el.(type) {
	case timeline.MediaElement:
		writeString(d, v.MediaID)
	case timeline.TextElement:
		writeString(d, v.Content)
		writeString(d, v.FontFamily)
		writeFloat(d, v.FontSize)
		writeString(d, v.Color)
		writeString(d, v.BackgroundColor)
		writeFloat(d, v.X)
		writeFloat(d, v.Y)
		writeFloat(d, v.Rotation)
		writeFloat(d, v.Opacity)
	}
}

func writeSettings(d *xxhash.Digest, s timeline.ProjectSettings) {
	writeString(d, s.BackgroundColor)
	writeString(d, s.BackgroundType)
	writeInt(d, int64(s.CanvasWidth))
	writeInt(d, int64(s.CanvasHeight))
	writeInt(d, int64(s.BlurIntensity))
}

// Field delimiters keep adjacent values from aliasing (e.g. "ab"+"c"
// vs "a"+"bc").
const fieldSep = "\x1f"

func writeString(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.WriteString(fieldSep)
}

func writeInt(d *xxhash.Digest, v int64) {
	_, _ = d.WriteString(strconv.FormatInt(v, 10))
	_, _ = d.WriteString(fieldSep)
}

func writeFloat(d *xxhash.Digest, v float64) {
	_, _ = d.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	_, _ = d.WriteString(fieldSep)
}
