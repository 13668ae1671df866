package mp4source

import (
	"context"
	"image"
	"io"
	"testing"
)

// stubDecoder turns any sample payload into a fixed-size frame.
type stubDecoder struct {
	decoded int
	closed  bool
}

func (d *stubDecoder) DecodeSample(data []byte, dst *image.RGBA) (image.Image, error) {
	d.decoded++
	if dst != nil {
		return dst, nil
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (d *stubDecoder) Close() { d.closed = true }

// gopSamples builds n samples of 100ms each with a keyframe every
// gop samples.
func gopSamples(n, gop int) []sample {
	samples := make([]sample, n)
	for i := range samples {
		samples[i] = sample{
			timestampMs: i * 100,
			durationMs:  100,
			keyframe:    i%gop == 0,
		}
	}
	return samples
}

func TestIterator_Next(t *testing.T) {
	dec := &stubDecoder{}
	it := &iterator{samples: gopSamples(3, 1), dec: dec}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		frame, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if frame.TimestampMs != i*100 || frame.Duration != 100 {
			t.Errorf("frame %d timing = %d+%d", i, frame.TimestampMs, frame.Duration)
		}
	}

	if _, err := it.Next(ctx); err != io.EOF {
		t.Errorf("expected io.EOF past the end, got %v", err)
	}
}

func TestIterator_SeekToKeyframe(t *testing.T) {
	it := &iterator{samples: gopSamples(30, 10), dec: &stubDecoder{}}
	ctx := context.Background()

	// 1.45s lands in sample 14; its keyframe is sample 10.
	if err := it.Seek(ctx, 1.45); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if it.pos != 10 {
		t.Errorf("expected the cursor at keyframe sample 10, got %d", it.pos)
	}

	frame, err := it.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if frame.TimestampMs != 1000 {
		t.Errorf("expected decoding to restart at 1.0s, got %dms", frame.TimestampMs)
	}
}

func TestIterator_SeekBeforeFirstKeyframe(t *testing.T) {
	it := &iterator{samples: gopSamples(30, 10), dec: &stubDecoder{}}

	if err := it.Seek(context.Background(), 0.0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if it.pos != 0 {
		t.Errorf("expected the cursor at the first sample, got %d", it.pos)
	}
}

func TestIterator_SeekPastEnd(t *testing.T) {
	it := &iterator{samples: gopSamples(30, 10), dec: &stubDecoder{}}

	if err := it.Seek(context.Background(), 100.0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	// The cursor stops at the last GOP's keyframe; decoding walks
	// forward from there.
	if it.pos != 20 {
		t.Errorf("expected the cursor at the last keyframe, got %d", it.pos)
	}
}

func TestIterator_Close(t *testing.T) {
	dec := &stubDecoder{}
	it := &iterator{samples: gopSamples(3, 1), dec: dec}

	if err := it.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !dec.closed {
		t.Errorf("expected the decoder closed")
	}
	if err := it.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := it.Next(context.Background()); err != io.ErrClosedPipe {
		t.Errorf("expected io.ErrClosedPipe after Close, got %v", err)
	}
	if err := it.Seek(context.Background(), 0); err != io.ErrClosedPipe {
		t.Errorf("expected io.ErrClosedPipe after Close, got %v", err)
	}
}

func TestIterator_CanceledContext(t *testing.T) {
	it := &iterator{samples: gopSamples(3, 1), dec: &stubDecoder{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := it.Next(ctx); err == nil {
		t.Errorf("expected an error for a canceled context")
	}
}
