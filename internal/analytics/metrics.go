package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's own counters. Registration tolerates an
// already-registered collector so tests constructing several services share
// one set.
type Metrics struct {
	builds *prometheus.CounterVec
	events *prometheus.CounterVec
	drops  *prometheus.CounterVec
}

// NewMetrics registers and returns the engine counters.
func NewMetrics() *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verdant",
			Subsystem: "analytics",
			Name:      "snapshot_builds_total",
			Help:      "Snapshot requests by cache result",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verdant",
			Subsystem: "analytics",
			Name:      "events_ingested_total",
			Help:      "Canonical events accepted per source",
		}, []string{"source"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verdant",
			Subsystem: "analytics",
			Name:      "events_dropped_total",
			Help:      "Raw events rejected at the normalization boundary per source",
		}, []string{"source"}),
	}
	m.builds = registerCounterVec(m.builds)
	m.events = registerCounterVec(m.events)
	m.drops = registerCounterVec(m.drops)
	return m
}

func registerCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

// CacheHit records a snapshot served from cache.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.builds.WithLabelValues("hit").Inc()
	}
}

// CacheMiss records a snapshot rebuilt on a cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.builds.WithLabelValues("miss").Inc()
	}
}

// EventIngested counts one accepted canonical event.
func (m *Metrics) EventIngested(source string) {
	if m != nil {
		m.events.WithLabelValues(source).Inc()
	}
}

// EventDropped counts one rejected raw event.
func (m *Metrics) EventDropped(source string) {
	if m != nil {
		m.drops.WithLabelValues(source).Inc()
	}
}
