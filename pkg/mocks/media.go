// Package mocks provides mock implementations of the ports interfaces
// for tests.
package mocks

import (
	"context"
	"image"
	"io"

	"github.com/user/previewcache/pkg/ports"
)

// MediaSource is a mock implementation of ports.MediaSource.
type MediaSource struct {
	OpenIteratorFunc func(ctx context.Context, pool ports.BufferPool) (ports.FrameIterator, error)
	DurationSecFunc  func() float64
}

func (m *MediaSource) OpenIterator(ctx context.Context, pool ports.BufferPool) (ports.FrameIterator, error) {
	if m.OpenIteratorFunc != nil {
		return m.OpenIteratorFunc(ctx, pool)
	}
	return &FrameIterator{}, nil
}

func (m *MediaSource) DurationSec() float64 {
	if m.DurationSecFunc != nil {
		return m.DurationSecFunc()
	}
	return 0
}

var _ ports.MediaSource = (*MediaSource)(nil)

// FrameIterator is a mock implementation of ports.FrameIterator.
type FrameIterator struct {
	NextFunc  func(ctx context.Context) (*ports.VideoFrame, error)
	SeekFunc  func(ctx context.Context, t float64) error
	CloseFunc func() error
}

func (m *FrameIterator) Next(ctx context.Context) (*ports.VideoFrame, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx)
	}
	return nil, io.EOF
}

func (m *FrameIterator) Seek(ctx context.Context, t float64) error {
	if m.SeekFunc != nil {
		return m.SeekFunc(ctx, t)
	}
	return nil
}

func (m *FrameIterator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.FrameIterator = (*FrameIterator)(nil)

// ScriptedSource is a MediaSource whose iterator walks a fixed frame
// list with decode counting, emulating a real decoder's sequential and
// seek behavior.
type ScriptedSource struct {
	Frames []ports.VideoFrame

	// Decodes counts Next calls across all iterators.
	Decodes int
	// Seeks counts Seek calls across all iterators.
	Seeks int
}

func (s *ScriptedSource) OpenIterator(ctx context.Context, pool ports.BufferPool) (ports.FrameIterator, error) {
	pos := 0
	return &FrameIterator{
		NextFunc: func(ctx context.Context) (*ports.VideoFrame, error) {
			if pos >= len(s.Frames) {
				return nil, io.EOF
			}
			f := s.Frames[pos]
			pos++
			s.Decodes++
			if f.Image == nil {
				f.Image = image.NewRGBA(image.Rect(0, 0, 2, 2))
			}
			return &f, nil
		},
		SeekFunc: func(ctx context.Context, t float64) error {
			s.Seeks++
			ms := int(t * 1000)
			pos = 0
			for pos < len(s.Frames) && s.Frames[pos].TimestampMs+s.Frames[pos].Duration <= ms {
				pos++
			}
			return nil
		},
	}, nil
}

func (s *ScriptedSource) DurationSec() float64 {
	if len(s.Frames) == 0 {
		return 0
	}
	last := s.Frames[len(s.Frames)-1]
	return float64(last.TimestampMs+last.Duration) / 1000
}

var _ ports.MediaSource = (*ScriptedSource)(nil)
