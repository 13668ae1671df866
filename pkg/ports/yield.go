package ports

import (
	"context"
	"time"
)

// Yielder is the host-provided idle-time execution opportunity.
// The pre-render scheduler calls Yield before each candidate so that
// low-priority work interleaves with frame display and input handling.
// Yield returns an error only when the context is done; the scheduler
// treats that as a request to stop.
type Yielder interface {
	Yield(ctx context.Context) error
}

// YielderFunc is a function adapter for the Yielder interface.
type YielderFunc func(ctx context.Context) error

// Yield implements Yielder.
func (f YielderFunc) Yield(ctx context.Context) error {
	return f(ctx)
}

// SleepYielder yields by sleeping for a fixed interval, for hosts
// without a real idle-callback primitive.
type SleepYielder struct {
	Interval time.Duration
}

// Yield sleeps for the configured interval or until the context is done.
func (s *SleepYielder) Yield(ctx context.Context) error {
	d := s.Interval
	if d <= 0 {
		d = time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
