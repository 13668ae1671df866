// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "previewcache"

// Cache lookup status constants.
const (
	StatusHit   = "hit"
	StatusMiss  = "miss"
	StatusStale = "stale"
)

// Decode strategy constants.
const (
	StrategyReuse      = "reuse"
	StrategySequential = "sequential"
	StrategySeek       = "seek"
)

// Pre-render outcome constants.
const (
	PrerenderRendered = "rendered"
	PrerenderFailed   = "failed"
	PrerenderShared   = "shared"
)

// Metrics holds the counters the core reports. Construct one per
// engine instance with a dedicated registerer; a nil *Metrics is a
// valid no-op receiver so tests can pass nil.
type Metrics struct {
	CacheLookups   *prometheus.CounterVec
	CacheEvictions prometheus.Counter
	CacheInserts   prometheus.Counter
	Prerenders     *prometheus.CounterVec
	DecodeRequests *prometheus.CounterVec
	DecodeFailures prometheus.Counter
}

// New creates Metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of frame cache lookups",
			},
			[]string{"status"},
		),
		CacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Total number of frame cache entries removed by eviction",
			},
		),
		CacheInserts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_inserts_total",
				Help:      "Total number of frame cache insertions",
			},
		),
		Prerenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prerenders_total",
				Help:      "Total number of background pre-render attempts",
			},
			[]string{"outcome"},
		),
		DecodeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_requests_total",
				Help:      "Total number of decode cursor requests by strategy",
			},
			[]string{"strategy"},
		),
		DecodeFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_failures_total",
				Help:      "Total number of failed decode requests",
			},
		),
	}
}

// CacheLookup records a cache lookup outcome.
func (m *Metrics) CacheLookup(status string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(status).Inc()
}

// CacheEvicted records n entries removed by one eviction pass.
func (m *Metrics) CacheEvicted(n int) {
	if m == nil {
		return
	}
	m.CacheEvictions.Add(float64(n))
}

// CacheInserted records a cache insertion.
func (m *Metrics) CacheInserted() {
	if m == nil {
		return
	}
	m.CacheInserts.Inc()
}

// Prerender records a background pre-render outcome.
func (m *Metrics) Prerender(outcome string) {
	if m == nil {
		return
	}
	m.Prerenders.WithLabelValues(outcome).Inc()
}

// DecodeRequest records a decode cursor request by strategy.
func (m *Metrics) DecodeRequest(strategy string) {
	if m == nil {
		return
	}
	m.DecodeRequests.WithLabelValues(strategy).Inc()
}

// DecodeFailed records a failed decode request.
func (m *Metrics) DecodeFailed() {
	if m == nil {
		return
	}
	m.DecodeFailures.Inc()
}
