package window

import (
	"sync"
	"testing"

	"github.com/verdantiq/analytics/internal/domain"
)

func event(id string, ts int64, value float64) domain.CanonicalEvent {
	return domain.CanonicalEvent{MetricID: id, TimestampMillis: ts, Value: value}
}

func TestSnapshotSortsOutOfOrderArrivals(t *testing.T) {
	s := NewStore(10)
	s.Ingest(event("habitat_integrity", 3000, 3))
	s.Ingest(event("habitat_integrity", 1000, 1))
	s.Ingest(event("habitat_integrity", 2000, 2))

	got := s.Snapshot("habitat_integrity", 60, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TimestampMillis < got[i-1].TimestampMillis {
			t.Fatalf("events not sorted: %v", got)
		}
	}
}

func TestIngestTrimsToMaxEvents(t *testing.T) {
	s := NewStore(5)
	for i := int64(0); i < 12; i++ {
		s.Ingest(event("species_observations", i*1000, float64(i)))
	}
	got := s.Snapshot("species_observations", 3600, 0)
	if len(got) != 5 {
		t.Fatalf("expected 5 retained events, got %d", len(got))
	}
	if got[0].TimestampMillis != 7000 {
		t.Fatalf("expected oldest retained timestamp 7000, got %d", got[0].TimestampMillis)
	}
}

func TestSnapshotClipsToTimeWindow(t *testing.T) {
	s := NewStore(100)
	s.Ingest(event("habitat_integrity", 0, 1))
	s.Ingest(event("habitat_integrity", 200_000, 2))
	s.Ingest(event("habitat_integrity", 260_000, 3))

	got := s.Snapshot("habitat_integrity", 110, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 events inside 110s window, got %d", len(got))
	}
	if got[0].TimestampMillis != 200_000 {
		t.Fatalf("expected window anchored to latest event, got first ts %d", got[0].TimestampMillis)
	}
}

func TestSnapshotLimitsToMostRecent(t *testing.T) {
	s := NewStore(100)
	for i := int64(0); i < 30; i++ {
		s.Ingest(event("habitat_integrity", i*1000, float64(i)))
	}
	got := s.Snapshot("habitat_integrity", 3600, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 trend events, got %d", len(got))
	}
	if got[9].Value != 29 {
		t.Fatalf("expected newest value 29, got %v", got[9].Value)
	}
}

func TestSnapshotUnknownMetric(t *testing.T) {
	s := NewStore(10)
	if got := s.Snapshot("missing", 60, 10); got != nil {
		t.Fatalf("expected nil for unknown metric, got %v", got)
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	s := NewStore(10)
	s.Ingest(event("habitat_integrity", 1000, 1))
	got := s.Snapshot("habitat_integrity", 60, 10)
	got[0].Value = 999

	again := s.Snapshot("habitat_integrity", 60, 10)
	if again[0].Value != 1 {
		t.Fatalf("snapshot leaked internal state: %v", again[0])
	}
}

func TestConcurrentIngestAndSnapshot(t *testing.T) {
	s := NewStore(50)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 200; i++ {
				s.Ingest(event("habitat_integrity", base+i*10, float64(i)))
			}
		}(int64(g) * 7)
	}
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := s.Snapshot("habitat_integrity", 3600, 10)
				for j := 1; j < len(got); j++ {
					if got[j].TimestampMillis < got[j-1].TimestampMillis {
						t.Errorf("torn read: %v", got)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
