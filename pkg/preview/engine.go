// Package preview ties the core engines together: frame cache,
// pre-render scheduler and decode cursor manager behind one facade
// implementing the "frame at time T for snapshot S" flow. Construct
// one Engine per editor instance at host startup; there is no implicit
// process-wide singleton, so tests build isolated instances.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/user/previewcache/pkg/config"
	"github.com/user/previewcache/pkg/framecache"
	"github.com/user/previewcache/pkg/mediacursor"
	"github.com/user/previewcache/pkg/metrics"
	"github.com/user/previewcache/pkg/ports"
	"github.com/user/previewcache/pkg/prerender"
	"github.com/user/previewcache/pkg/timeline"
)

// Mode selects the pre-fetch range around the focus time.
type Mode int

const (
	// ModePlayback pre-renders a short window; playback consumes
	// frames forward at a steady rate.
	ModePlayback Mode = iota
	// ModeScrub pre-renders a wider window around the settled scrub
	// position.
	ModeScrub
)

// Engine is the preview cache facade.
type Engine struct {
	cache  *framecache.Cache
	sched  *prerender.Scheduler
	cursor *mediacursor.Manager
	sink   ports.DebugSink
	logger ports.Logger

	playbackRange float64
	scrubRange    float64
}

// New builds an Engine from cfg. yielder is the host's idle-time
// execution opportunity; sink and m may be nil.
func New(cfg config.Config, yielder ports.Yielder, sink ports.DebugSink, logger ports.Logger, m *metrics.Metrics) *Engine {
	cache := framecache.New(framecache.Options{
		Capacity:      cfg.CacheCapacity,
		Resolution:    cfg.CacheResolution,
		EvictFraction: cfg.EvictFraction,
	}, logger, m)

	sched := prerender.New(cache, yielder, prerender.Options{
		MinCandidates: cfg.MinCandidates,
		MaxCandidates: cfg.MaxCandidates,
	}, logger, m)

	cursor := mediacursor.NewManager(mediacursor.Options{
		SequentialThreshold: cfg.SequentialThresholdSec,
		BufferPoolSize:      cfg.BufferPoolSize,
	}, logger, m)

	playback := cfg.PlaybackRangeSec
	if playback <= 0 {
		playback = 1.0
	}
	scrub := cfg.ScrubRangeSec
	if scrub <= 0 {
		scrub = 3.0
	}

	return &Engine{
		cache:         cache,
		sched:         sched,
		cursor:        cursor,
		sink:          sink,
		logger:        logger.WithComponent("preview"),
		playbackRange: playback,
		scrubRange:    scrub,
	}
}

// FrameAt returns the frame at time t for snap. A valid cached frame
// returns immediately; on a miss the render function runs on the
// foreground path and its failure propagates to the caller. The
// rendered frame is stored back into the cache before returning.
func (e *Engine) FrameAt(ctx context.Context, t float64, snap *timeline.Snapshot, render ports.RenderFunc) (image.Image, error) {
	if frame, ok := e.cache.Get(t, snap); ok {
		return frame, nil
	}

	frame, err := render(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("render frame at %.3fs: %w", t, err)
	}

	e.cache.Put(t, snap, frame)
	if e.sink != nil && e.sink.Enabled() {
		if err := e.sink.SaveFrame(e.cache.Engine().Bucket(t), frame); err != nil {
			e.logger.Debug("Debug sink write failed: %s", err)
		}
	}
	return frame, nil
}

// Prefetch tops up the cache around t. Fire-and-forget: the returned
// channel closes when the batch finishes, but awaiting it is optional.
// Debounce during continuous scrubbing; schedule once per settled
// position.
func (e *Engine) Prefetch(ctx context.Context, t float64, snap *timeline.Snapshot, render ports.RenderFunc, mode Mode) <-chan struct{} {
	rangeSec := e.playbackRange
	if mode == ModeScrub {
		rangeSec = e.scrubRange
	}
	return e.sched.ScheduleNearby(ctx, t, snap, render, rangeSec)
}

// InvalidateAll drops every cached frame.
func (e *Engine) InvalidateAll() {
	e.cache.InvalidateAll()
}

// Cache exposes the frame cache.
func (e *Engine) Cache() *framecache.Cache { return e.cache }

// Cursor exposes the decode cursor manager.
func (e *Engine) Cursor() *mediacursor.Manager { return e.cursor }

// Close releases all decode sessions and drops the cache.
func (e *Engine) Close() {
	e.cursor.ReleaseAll()
	e.cache.InvalidateAll()
}

// report is the diagnostics snapshot written by WriteReport.
type report struct {
	CacheSize     int `json:"cache_size"`
	CacheCapacity int `json:"cache_capacity"`
	Sessions      int `json:"sessions"`
	LiveIterators int `json:"live_iterators"`
	CachedFrames  int `json:"cached_frames"`
}

// WriteReport saves a diagnostics report through the debug sink.
func (e *Engine) WriteReport() error {
	if e.sink == nil || !e.sink.Enabled() {
		return nil
	}
	st := e.cursor.Stats()
	data, err := json.MarshalIndent(report{
		CacheSize:     e.cache.Size(),
		CacheCapacity: e.cache.Capacity(),
		Sessions:      st.Sessions,
		LiveIterators: st.LiveIterators,
		CachedFrames:  st.CachedFrames,
	}, "", "  ")
	if err != nil {
		return err
	}
	return e.sink.SaveReport(data)
}
