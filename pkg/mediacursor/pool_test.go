package mediacursor

import (
	"testing"
)

func TestFramePool_Reuse(t *testing.T) {
	pool := newFramePool(3)

	buf := pool.Get(640, 360)
	pool.Put(buf)

	if got := pool.Get(640, 360); got != buf {
		t.Errorf("expected the pooled buffer back")
	}
}

func TestFramePool_SizeMismatchAllocates(t *testing.T) {
	pool := newFramePool(3)

	small := pool.Get(320, 180)
	pool.Put(small)

	big := pool.Get(1280, 720)
	if big == small {
		t.Errorf("a smaller pooled buffer must not satisfy a larger request")
	}
	if b := big.Bounds(); b.Dx() != 1280 || b.Dy() != 720 {
		t.Errorf("allocated buffer is %dx%d", b.Dx(), b.Dy())
	}
}

func TestFramePool_Bounded(t *testing.T) {
	pool := newFramePool(2)

	a := pool.Get(100, 100)
	b := pool.Get(100, 100)
	c := pool.Get(100, 100)
	pool.Put(a)
	pool.Put(b)
	pool.Put(c)

	if n := len(pool.bufs); n != 2 {
		t.Errorf("expected the pool bounded at 2, got %d", n)
	}
}

func TestFramePool_NilPut(t *testing.T) {
	pool := newFramePool(1)
	pool.Put(nil)
	if len(pool.bufs) != 0 {
		t.Errorf("nil must not be pooled")
	}
}
