package mp4source

import (
	"context"
	"image"
	"io"
	"sort"

	"github.com/user/previewcache/pkg/ports"
)

// iterator is a stateful decode pass over the sample index.
type iterator struct {
	samples []sample
	pos     int
	dec     ports.SampleDecoder
	pool    ports.BufferPool
	width   int
	height  int
	closed  bool
}

// Next decodes the sample at the cursor and advances it. Returns
// io.EOF past the end of the track.
func (it *iterator) Next(ctx context.Context) (*ports.VideoFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.closed {
		return nil, io.ErrClosedPipe
	}
	if it.pos >= len(it.samples) {
		return nil, io.EOF
	}

	s := it.samples[it.pos]
	it.pos++

	var dst *image.RGBA
	if it.pool != nil && it.width > 0 {
		dst = it.pool.Get(it.width, it.height)
	}
	img, err := it.dec.DecodeSample(s.data, dst)
	if err != nil {
		if dst != nil && it.pool != nil {
			it.pool.Put(dst)
		}
		return nil, err
	}

	return &ports.VideoFrame{
		Image:       img,
		TimestampMs: s.timestampMs,
		Duration:    s.durationMs,
	}, nil
}

// Seek repositions the cursor to the nearest keyframe at or before t,
// so the following Next calls rebuild decoder state while walking up
// to the target.
func (it *iterator) Seek(ctx context.Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if it.closed {
		return io.ErrClosedPipe
	}

	targetMs := int(t * 1000)

	// First sample past the target, then step back to its keyframe.
	idx := sort.Search(len(it.samples), func(i int) bool {
		return it.samples[i].timestampMs > targetMs
	})
	if idx > 0 {
		idx--
	}
	for idx > 0 && !it.samples[idx].keyframe {
		idx--
	}

	it.pos = idx
	return nil
}

// Close releases the decoder. Safe to call more than once.
func (it *iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.dec.Close()
	return nil
}

var _ ports.FrameIterator = (*iterator)(nil)
