package ports

import (
	"context"
	"image"
)

// VideoFrame represents a decoded video frame with timing information.
// The frame is valid for the half-open window
// [TimestampMs, TimestampMs+Duration).
type VideoFrame struct {
	Image       image.Image
	TimestampMs int
	Duration    int // Duration in milliseconds
}

// Contains reports whether t (seconds) falls inside the frame's
// validity window.
func (f *VideoFrame) Contains(t float64) bool {
	ms := int(t * 1000)
	return ms >= f.TimestampMs && ms < f.TimestampMs+f.Duration
}

// MediaSource abstracts an opened media container. Implementations
// validate decodability up front: OpenIterator returns a permanent
// error (e.g. unsupported codec) that the cursor manager records as a
// fatal-per-media condition.
type MediaSource interface {
	// OpenIterator starts a sequential decode pass over the source.
	// Decoded frames draw reusable buffers from pool when possible.
	OpenIterator(ctx context.Context, pool BufferPool) (FrameIterator, error)

	// DurationSec returns the source duration in seconds, if known.
	DurationSec() float64
}

// FrameIterator is a stateful decode pass over a media source.
// Next advances one frame; Seek repositions the iterator to an
// arbitrary time. Close releases the underlying decoder handle and
// must be safe to call more than once.
type FrameIterator interface {
	Next(ctx context.Context) (*VideoFrame, error)
	Seek(ctx context.Context, t float64) error
	Close() error
}

// SampleDecoder turns an encoded container sample into pixels.
// Implementations wrap a real codec (libaom, VideoToolbox, ffmpeg);
// the core never decodes pixels itself.
type SampleDecoder interface {
	// DecodeSample decodes one sample. dst may be nil; when non-nil the
	// decoder may reuse it as the backing buffer.
	DecodeSample(data []byte, dst *image.RGBA) (image.Image, error)

	// Close releases decoder resources.
	Close()
}

// BufferPool is a bounded pool of reusable raster buffers used by
// decode iterators to avoid per-frame allocation.
type BufferPool interface {
	// Get returns a buffer of at least the given dimensions.
	Get(width, height int) *image.RGBA

	// Put returns a buffer to the pool. Buffers beyond the pool bound
	// are dropped.
	Put(buf *image.RGBA)
}
