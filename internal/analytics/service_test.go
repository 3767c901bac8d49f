package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/verdantiq/analytics/internal/cache"
	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/source"
	"github.com/verdantiq/analytics/internal/window"
)

type fixedSource struct {
	events []domain.CanonicalEvent
}

func (s *fixedSource) Name() string { return "stub" }

func (s *fixedSource) Fetch(context.Context) ([]domain.CanonicalEvent, bool) {
	return s.events, true
}

func newTestService(events []domain.CanonicalEvent, ttl time.Duration) *Service {
	defs := testDefs()
	chain := source.NewChain(&fixedSource{events: events})
	store := window.NewStore(50)
	builder := NewBuilder(defs, 110)
	return NewService(chain, store, builder, cache.NewMemory(), ttl, nil, NewMetrics(), nil)
}

func TestSnapshotCacheSmoothing(t *testing.T) {
	svc := newTestService(nil, 200*time.Millisecond)
	defer svc.Close()

	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	ctx := context.Background()
	first := svc.Snapshot(ctx)
	current = current.Add(20 * time.Second)
	second := svc.Snapshot(ctx)
	if first.GeneratedAt != second.GeneratedAt {
		t.Fatalf("expected identical generatedAt inside TTL: %d vs %d", first.GeneratedAt, second.GeneratedAt)
	}

	time.Sleep(250 * time.Millisecond)
	third := svc.Snapshot(ctx)
	if third.GeneratedAt == first.GeneratedAt {
		t.Fatal("expected a fresh snapshot after TTL expiry")
	}
}

func TestSnapshotFeedsWindowStore(t *testing.T) {
	events := []domain.CanonicalEvent{
		{MetricID: "habitat_integrity", TimestampMillis: 1700000000000, Value: 100},
		{MetricID: "habitat_integrity", TimestampMillis: 1700000015000, Value: 120},
	}
	svc := newTestService(events, time.Second)
	defer svc.Close()

	snapshot := svc.Snapshot(context.Background())
	m := snapshot.Metrics[0]
	if m.ID != "habitat_integrity" || m.Value != 120 {
		t.Fatalf("expected live value 120, got %+v", m)
	}
	if m.Delta != 20 || m.Direction != domain.DirectionUp {
		t.Fatalf("expected delta 20 up, got %v %s", m.Delta, m.Direction)
	}
}

func TestSnapshotAlwaysCoversCatalog(t *testing.T) {
	svc := newTestService(nil, time.Second)
	defer svc.Close()

	snapshot := svc.Snapshot(context.Background())
	if len(snapshot.Metrics) != len(testDefs()) {
		t.Fatalf("expected %d metrics, got %d", len(testDefs()), len(snapshot.Metrics))
	}
	if snapshot.Narrative == "" {
		t.Fatal("expected non-empty narrative")
	}
}

func TestSnapshotPublishesOnRebuild(t *testing.T) {
	var published []domain.LiveAnalyticsSnapshot
	svc := newTestService(nil, time.Minute)
	defer svc.Close()
	svc.publish = func(s domain.LiveAnalyticsSnapshot) { published = append(published, s) }

	ctx := context.Background()
	svc.Snapshot(ctx)
	svc.Snapshot(ctx) // cache hit, no publish
	if len(published) != 1 {
		t.Fatalf("expected one publish per rebuild, got %d", len(published))
	}
}

func TestSourceHealth(t *testing.T) {
	svc := newTestService(nil, time.Second)
	defer svc.Close()

	health := svc.SourceHealth()
	if health["stub"] != "configured" {
		t.Fatalf("unexpected health map %v", health)
	}
}
