// Package mediacursor maintains one stateful decode session per media
// identity. A session keeps a decode cursor so that monotonic
// playback and scrubbing extract frames by cheap sequential advance,
// falling back to direct seeks for large jumps and reversals.
package mediacursor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/user/previewcache/pkg/metrics"
	"github.com/user/previewcache/pkg/ports"
)

const (
	// DefaultSequentialThreshold is the forward distance in seconds
	// within which the sequential strategy is preferred over a seek.
	DefaultSequentialThreshold = 2.0
	// DefaultBufferPoolSize is the number of reusable raster buffers
	// per session.
	DefaultBufferPoolSize = 3
)

// ErrMediaFailed wraps a permanent per-media initialization failure.
// Every FrameAt call for that media returns it until the session is
// released.
var ErrMediaFailed = errors.New("mediacursor: media initialization failed")

// Options configures a Manager.
type Options struct {
	// SequentialThreshold is the forward window in seconds for the
	// sequential strategy (default 2).
	SequentialThreshold float64
	// BufferPoolSize is the per-session raster buffer pool bound
	// (default 3).
	BufferPoolSize int
}

// Stats summarizes the manager's session state.
type Stats struct {
	// Sessions is the total number of tracked sessions.
	Sessions int
	// LiveIterators is the number of sessions with an open decode
	// iterator.
	LiveIterators int
	// CachedFrames is the number of sessions holding a current frame.
	CachedFrames int
}

// session is the per-media decode state. Mutations are serialized by
// the session mutex so an in-flight decode cannot corrupt it.
type session struct {
	mu      sync.Mutex
	source  ports.MediaSource
	pool    *framePool
	iter    ports.FrameIterator
	last    *ports.VideoFrame
	cursor  float64
	initErr error
}

// Manager owns all decode sessions. Sessions are created lazily on
// first request and destroyed by Release/ReleaseAll.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	threshold float64
	poolSize  int
	logger    ports.Logger
	metrics   *metrics.Metrics
}

// NewManager creates a Manager. logger must be non-nil; metrics may be
// nil.
func NewManager(opts Options, logger ports.Logger, m *metrics.Metrics) *Manager {
	if opts.SequentialThreshold <= 0 {
		opts.SequentialThreshold = DefaultSequentialThreshold
	}
	if opts.BufferPoolSize <= 0 {
		opts.BufferPoolSize = DefaultBufferPoolSize
	}
	return &Manager{
		sessions:  make(map[string]*session),
		threshold: opts.SequentialThreshold,
		poolSize:  opts.BufferPoolSize,
		logger:    logger.WithComponent("mediacursor"),
		metrics:   m,
	}
}

// FrameAt extracts the frame of mediaID covering time t (seconds).
// source is consulted only when the session does not exist yet.
// A nil frame with a nil error never occurs; failures follow the
// strategy fallback chain (sequential → seek) before propagating.
func (m *Manager) FrameAt(ctx context.Context, mediaID string, source ports.MediaSource, t float64) (*ports.VideoFrame, error) {
	s := m.obtain(mediaID, source)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initErr != nil {
		return nil, s.initErr
	}

	// Cursor reuse: the last extracted frame still covers t.
	if s.last != nil && s.last.Contains(t) {
		m.metrics.DecodeRequest(metrics.StrategyReuse)
		return s.last, nil
	}

	if s.iter == nil {
		if err := m.initSession(ctx, mediaID, s); err != nil {
			return nil, err
		}
	}

	// Sequential strategy for small forward deltas.
	if t >= s.cursor && t-s.cursor <= m.threshold && s.last != nil {
		frame, err := m.advance(ctx, s, t)
		if err == nil {
			m.metrics.DecodeRequest(metrics.StrategySequential)
			return frame, nil
		}
		m.logger.Debug("Sequential advance failed for %s, seeking: %s", mediaID, err)
	}

	frame, err := m.seek(ctx, s, t)
	if err != nil {
		m.metrics.DecodeFailed()
		return nil, err
	}
	m.metrics.DecodeRequest(metrics.StrategySeek)
	return frame, nil
}

// obtain returns the session for mediaID, creating it if needed.
func (m *Manager) obtain(mediaID string, source ports.MediaSource) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[mediaID]
	if !ok {
		s = &session{
			source: source,
			pool:   newFramePool(m.poolSize),
		}
		m.sessions[mediaID] = s
	}
	return s
}

// initSession opens the decode iterator. A failure here is fatal for
// the media identity: it is recorded on the session and returned from
// every subsequent FrameAt until the session is released.
func (m *Manager) initSession(ctx context.Context, mediaID string, s *session) error {
	iter, err := s.source.OpenIterator(ctx, s.pool)
	if err != nil {
		s.initErr = fmt.Errorf("%w: %s: %v", ErrMediaFailed, mediaID, err)
		m.logger.Warn("Media %s unavailable: %s", mediaID, err)
		return s.initErr
	}
	s.iter = iter
	m.logger.Debug("Opened decode session for %s", mediaID)
	return nil
}

// advance steps the iterator forward until a frame's validity window
// reaches t.
func (m *Manager) advance(ctx context.Context, s *session, t float64) (*ports.VideoFrame, error) {
	targetMs := int(t * 1000)
	for {
		frame, err := s.iter.Next(ctx)
		if err != nil {
			return nil, err
		}
		if frame.TimestampMs+frame.Duration > targetMs {
			m.commit(s, frame)
			return frame, nil
		}
		m.recycle(s, frame)
	}
}

// seek repositions the iterator at t and extracts the covering frame.
func (m *Manager) seek(ctx context.Context, s *session, t float64) (*ports.VideoFrame, error) {
	if err := s.iter.Seek(ctx, t); err != nil {
		return nil, fmt.Errorf("seek to %.3fs: %w", t, err)
	}
	return m.advance(ctx, s, t)
}

// commit records a frame as the session's current cursor position.
// The previous frame's buffer goes back to the pool.
func (m *Manager) commit(s *session, frame *ports.VideoFrame) {
	m.recycle(s, s.last)
	s.last = frame
	s.cursor = float64(frame.TimestampMs) / 1000
}

// recycle returns a frame's backing buffer to the session pool.
func (m *Manager) recycle(s *session, frame *ports.VideoFrame) {
	if frame == nil {
		return
	}
	if buf, ok := frame.Image.(*image.RGBA); ok {
		s.pool.Put(buf)
	}
}

// FailureCause returns the permanent failure recorded for mediaID, or
// nil when the media has no session or a healthy one.
func (m *Manager) FailureCause(mediaID string) error {
	m.mu.Lock()
	s, ok := m.sessions[mediaID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

// Release closes and discards the session for mediaID. It is a no-op
// when no session exists and never blocks on in-flight decode work
// beyond the session mutex.
func (m *Manager) Release(mediaID string) {
	m.mu.Lock()
	s, ok := m.sessions[mediaID]
	delete(m.sessions, mediaID)
	m.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.iter != nil {
		if err := s.iter.Close(); err != nil {
			m.logger.Debug("Closing iterator for %s: %s", mediaID, err)
		}
		s.iter = nil
	}
	s.last = nil
	m.logger.Debug("Released decode session for %s", mediaID)
}

// ReleaseAll closes and discards every tracked session.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for id, s := range sessions {
		s.mu.Lock()
		if s.iter != nil {
			if err := s.iter.Close(); err != nil {
				m.logger.Debug("Closing iterator for %s: %s", id, err)
			}
			s.iter = nil
		}
		s.last = nil
		s.mu.Unlock()
	}
	if len(sessions) > 0 {
		m.logger.Debug("Released %d decode sessions", len(sessions))
	}
}

// Stats returns a summary of the tracked sessions.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	st := Stats{Sessions: len(sessions)}
	for _, s := range sessions {
		s.mu.Lock()
		if s.iter != nil {
			st.LiveIterators++
		}
		if s.last != nil {
			st.CachedFrames++
		}
		s.mu.Unlock()
	}
	return st
}
