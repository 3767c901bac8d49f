package window

import (
	"sort"
	"sync"

	"github.com/verdantiq/analytics/internal/domain"
)

// DefaultMaxEvents bounds how many events a metric retains between trims.
const DefaultMaxEvents = 180

// Store holds recent canonical events per metric. Ingestion (the queue
// consumer) and snapshot builds run concurrently, so each metric has its own
// lock and reads always return copies.
type Store struct {
	mu        sync.RWMutex
	maxEvents int
	byMetric  map[string]*metricWindow
}

type metricWindow struct {
	mu     sync.Mutex
	events []domain.CanonicalEvent // non-decreasing by timestamp
}

// NewStore constructs a Store retaining at most maxEvents per metric.
func NewStore(maxEvents int) *Store {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Store{
		maxEvents: maxEvents,
		byMetric:  make(map[string]*metricWindow),
	}
}

// Ingest appends one event to its metric's window, restoring timestamp order
// when the event arrived late and trimming to the retained maximum.
func (s *Store) Ingest(event domain.CanonicalEvent) {
	if s == nil || event.MetricID == "" {
		return
	}
	w := s.window(event.MetricID)

	w.mu.Lock()
	defer w.mu.Unlock()

	outOfOrder := len(w.events) > 0 && event.TimestampMillis < w.events[len(w.events)-1].TimestampMillis
	w.events = append(w.events, event)
	if outOfOrder {
		sort.SliceStable(w.events, func(i, j int) bool {
			return w.events[i].TimestampMillis < w.events[j].TimestampMillis
		})
	}
	if overflow := len(w.events) - s.maxEvents; overflow > 0 {
		w.events = append(w.events[:0], w.events[overflow:]...)
	}
}

// IngestBatch feeds a slice of events through Ingest.
func (s *Store) IngestBatch(events []domain.CanonicalEvent) {
	for _, event := range events {
		s.Ingest(event)
	}
}

// Snapshot returns a copy of the events inside the rolling time window
// anchored to the metric's most recent timestamp, clipped to the latest
// limit entries. It never exposes internal slices.
func (s *Store) Snapshot(metricID string, windowSeconds int, limit int) []domain.CanonicalEvent {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	w := s.byMetric[metricID]
	s.mu.RUnlock()
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.events) == 0 {
		return nil
	}

	latest := w.events[len(w.events)-1].TimestampMillis
	cutoff := latest - int64(windowSeconds)*1000
	start := sort.Search(len(w.events), func(i int) bool {
		return w.events[i].TimestampMillis >= cutoff
	})
	inWindow := w.events[start:]
	if limit > 0 && len(inWindow) > limit {
		inWindow = inWindow[len(inWindow)-limit:]
	}

	out := make([]domain.CanonicalEvent, len(inWindow))
	copy(out, inWindow)
	return out
}

func (s *Store) window(metricID string) *metricWindow {
	s.mu.RLock()
	w := s.byMetric[metricID]
	s.mu.RUnlock()
	if w != nil {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w = s.byMetric[metricID]; w == nil {
		w = &metricWindow{}
		s.byMetric[metricID] = w
	}
	return w
}
