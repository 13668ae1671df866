// Package prerender drives background population of the frame cache
// around a focus time. Work is advisory and abandon-safe: a failed or
// stale pre-render never surfaces to the host, and overlapping
// scheduling calls are idempotent in effect.
package prerender

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/user/previewcache/pkg/framecache"
	"github.com/user/previewcache/pkg/metrics"
	"github.com/user/previewcache/pkg/ports"
	"github.com/user/previewcache/pkg/timeline"
)

const (
	// DefaultMinCandidates is the lower bound on candidates per call,
	// so low resolution/range settings still do useful work.
	DefaultMinCandidates = 30
	// DefaultMaxCandidates bounds worst-case work per scheduling call.
	DefaultMaxCandidates = 90
)

// Options configures a Scheduler.
type Options struct {
	// MinCandidates and MaxCandidates clamp the candidate list length
	// (defaults 30 and 90). Empirical tuning constants.
	MinCandidates int
	MaxCandidates int
}

// Scheduler computes and renders pre-render candidates around a focus
// time. It holds no persistent job state: each ScheduleNearby call
// computes a fresh candidate list against current cache contents.
type Scheduler struct {
	cache   *framecache.Cache
	yielder ports.Yielder
	logger  ports.Logger
	metrics *metrics.Metrics
	group   singleflight.Group

	minCandidates int
	maxCandidates int
}

// New creates a Scheduler populating cache. yielder is the host's
// idle-time execution opportunity, called before each candidate.
func New(cache *framecache.Cache, yielder ports.Yielder, opts Options, logger ports.Logger, m *metrics.Metrics) *Scheduler {
	if opts.MinCandidates <= 0 {
		opts.MinCandidates = DefaultMinCandidates
	}
	if opts.MaxCandidates < opts.MinCandidates {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if yielder == nil {
		yielder = ports.YielderFunc(func(ctx context.Context) error { return ctx.Err() })
	}
	return &Scheduler{
		cache:         cache,
		yielder:       yielder,
		logger:        logger.WithComponent("prerender"),
		metrics:       m,
		minCandidates: opts.MinCandidates,
		maxCandidates: opts.MaxCandidates,
	}
}

// ScheduleNearby populates the cache for times within rangeSec of
// focus. It returns immediately; the returned channel closes when the
// batch is exhausted or the context is done. The host need not await
// it for correctness.
//
// Calling this on every tick of a continuous scrub is wasted work;
// the host should debounce and schedule once per settled position.
func (s *Scheduler) ScheduleNearby(ctx context.Context, focus float64, snap *timeline.Snapshot, render ports.RenderFunc, rangeSec float64) <-chan struct{} {
	done := make(chan struct{})
	candidates := s.candidates(focus, snap, rangeSec)

	go func() {
		defer close(done)
		s.run(ctx, candidates, snap, render)
	}()

	return done
}

// run renders candidates in order, yielding to the host before each
// one. A single failed render skips to the next candidate.
func (s *Scheduler) run(ctx context.Context, candidates []float64, snap *timeline.Snapshot, render ports.RenderFunc) {
	rendered := 0
	for _, t := range candidates {
		if err := s.yielder.Yield(ctx); err != nil {
			s.logger.Debug("Pre-render batch stopped: %s", err)
			return
		}

		// Another scheduling call may have filled this bucket while we
		// were yielded.
		if s.cache.IsCached(t, snap) {
			continue
		}

		if s.renderOne(ctx, t, snap, render) {
			rendered++
		}
	}
	if rendered > 0 {
		s.logger.Debug("Pre-rendered %d frames", rendered)
	}
}

// renderOne renders a single candidate through singleflight so that
// overlapping scheduling calls never decode the same bucket twice
// concurrently.
func (s *Scheduler) renderOne(ctx context.Context, t float64, snap *timeline.Snapshot, render ports.RenderFunc) bool {
	key := fmt.Sprintf("%d", s.cache.Engine().Bucket(t))
	_, err, shared := s.group.Do(key, func() (interface{}, error) {
		frame, err := render(ctx, t)
		if err != nil {
			return nil, err
		}
		s.cache.Put(t, snap, frame)
		return nil, nil
	})
	if err != nil {
		// Background path: log and continue, never propagate.
		s.metrics.Prerender(metrics.PrerenderFailed)
		s.logger.Debug("Pre-render failed at %.3fs: %s", t, err)
		return false
	}
	if shared {
		s.metrics.Prerender(metrics.PrerenderShared)
		return false
	}
	s.metrics.Prerender(metrics.PrerenderRendered)
	return true
}

// candidates computes the ordered candidate list for one scheduling
// call: enumerate the window, drop already-cached buckets, expand each
// touched second to its full sub-second frame set, sort by distance
// from focus with forward bias, and cap the total.
func (s *Scheduler) candidates(focus float64, snap *timeline.Snapshot, rangeSec float64) []float64 {
	engine := s.cache.Engine()
	res := engine.Resolution()

	// Seconds containing at least one uncached candidate in the window.
	first := engine.Bucket(focus - rangeSec)
	last := engine.Bucket(focus + rangeSec)
	if first < 0 {
		first = 0
	}
	seconds := make(map[int64]struct{})
	for b := first; b <= last; b++ {
		if s.cache.IsCached(engine.BucketTime(b), snap) {
			continue
		}
		seconds[b/int64(res)] = struct{}{}
	}

	// Expand each touched second to its full frame set. Fragmented,
	// partially populated seconds would force repeated scheduler
	// passes otherwise.
	var buckets []int64
	for sec := range seconds {
		for i := 0; i < res; i++ {
			b := sec*int64(res) + int64(i)
			if s.cache.IsCached(engine.BucketTime(b), snap) {
				continue
			}
			buckets = append(buckets, b)
		}
	}

	// Closest to focus first; ties go to the forward direction since
	// playback consumes future frames first. Distances compare in
	// bucket space so ties are exact.
	fb := engine.Bucket(focus)
	sort.Slice(buckets, func(i, j int) bool {
		di := absInt64(buckets[i] - fb)
		dj := absInt64(buckets[j] - fb)
		if di != dj {
			return di < dj
		}
		return buckets[i] > buckets[j]
	})

	limit := s.clampCandidates(res, rangeSec)
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}

	times := make([]float64, len(buckets))
	for i, b := range buckets {
		times[i] = engine.BucketTime(b)
	}
	return times
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// clampCandidates bounds the per-call candidate count to
// [minCandidates, maxCandidates] around resolution×range.
func (s *Scheduler) clampCandidates(res int, rangeSec float64) int {
	n := int(float64(res) * rangeSec)
	if n < s.minCandidates {
		n = s.minCandidates
	}
	if n > s.maxCandidates {
		n = s.maxCandidates
	}
	return n
}
