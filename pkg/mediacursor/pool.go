package mediacursor

import (
	"image"
	"sync"
)

// framePool is a bounded pool of reusable RGBA buffers handed to
// decode iterators. Buffers returned beyond the bound are dropped.
type framePool struct {
	mu   sync.Mutex
	bufs []*image.RGBA
	max  int
}

func newFramePool(max int) *framePool {
	if max <= 0 {
		max = DefaultBufferPoolSize
	}
	return &framePool{max: max}
}

// Get returns a pooled buffer of at least width×height, allocating a
// new one when no pooled buffer fits.
func (p *framePool) Get(width, height int) *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, buf := range p.bufs {
		b := buf.Bounds()
		if b.Dx() >= width && b.Dy() >= height {
			p.bufs = append(p.bufs[:i], p.bufs[i+1:]...)
			return buf
		}
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Put returns a buffer to the pool.
func (p *framePool) Put(buf *image.RGBA) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.bufs) < p.max {
		p.bufs = append(p.bufs, buf)
	}
}
