package analytics

import (
	"context"
	"time"

	"log/slog"

	"github.com/verdantiq/analytics/internal/cache"
	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/source"
	"github.com/verdantiq/analytics/internal/window"
)

const defaultSnapshotTTL = 4 * time.Second

// Service answers snapshot requests: cache first, then the source fallback
// chain, the window store, and the builder. A request never fails; the
// worst case is an all-synthetic snapshot.
type Service struct {
	chain   *source.Chain
	store   *window.Store
	builder *Builder
	cache   cache.Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
	publish func(domain.LiveAnalyticsSnapshot)
}

// NewService wires the snapshot pipeline. publish may be nil when no live
// push surface is attached.
func NewService(chain *source.Chain, store *window.Store, builder *Builder, cacheStore cache.Store, ttl time.Duration, logger *slog.Logger, metrics *Metrics, publish func(domain.LiveAnalyticsSnapshot)) *Service {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if cacheStore == nil {
		cacheStore = cache.NewMemory()
	}
	if logger != nil {
		logger = logger.With("component", "analytics_service")
	}
	return &Service{
		chain:   chain,
		store:   store,
		builder: builder,
		cache:   cacheStore,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		publish: publish,
	}
}

// Snapshot returns the current live analytics snapshot, rebuilding on cache
// miss. Concurrent misses may rebuild twice; cache writes are idempotent
// overwrites so the race is harmless.
func (s *Service) Snapshot(ctx context.Context) domain.LiveAnalyticsSnapshot {
	if snapshot, ok := s.cache.Get(ctx); ok {
		s.metrics.CacheHit()
		return snapshot
	}
	s.metrics.CacheMiss()

	events := s.chain.Fetch(ctx)
	s.store.IngestBatch(events)

	snapshot := s.builder.Build(s.store, s.now().UnixMilli())
	s.cache.Set(ctx, snapshot, s.ttl)

	if s.publish != nil {
		s.publish(snapshot)
	}
	if s.logger != nil {
		s.logger.Debug("snapshot rebuilt", "live_events", len(events), "window_seconds", snapshot.WindowSeconds)
	}
	return snapshot
}

// healthReporter is implemented by adapters that track upstream liveness.
type healthReporter interface {
	Healthy() bool
}

// SourceHealth reports each configured adapter's current status.
func (s *Service) SourceHealth() map[string]string {
	out := make(map[string]string)
	for _, src := range s.chain.Sources() {
		status := "configured"
		if hr, ok := src.(healthReporter); ok {
			if hr.Healthy() {
				status = "healthy"
			} else {
				status = "degraded"
			}
		}
		out[src.Name()] = status
	}
	return out
}

// Close releases the snapshot cache.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}
