package source

import (
	"sync"

	"github.com/verdantiq/analytics/internal/domain"
)

const defaultBufferCap = 64

// eventBuffers stages consumed queue events per metric until the next
// snapshot build reads them. Buffers are bounded with oldest-first eviction
// and are only ever read (never reset) by builds, so a burst of polling
// clients observes the same staged data.
type eventBuffers struct {
	mu       sync.Mutex
	capacity int
	byMetric map[string][]domain.CanonicalEvent
}

func newEventBuffers(capacity int) *eventBuffers {
	if capacity <= 0 {
		capacity = defaultBufferCap
	}
	return &eventBuffers{
		capacity: capacity,
		byMetric: make(map[string][]domain.CanonicalEvent),
	}
}

func (b *eventBuffers) add(event domain.CanonicalEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := append(b.byMetric[event.MetricID], event)
	if overflow := len(buf) - b.capacity; overflow > 0 {
		buf = append(buf[:0], buf[overflow:]...)
	}
	b.byMetric[event.MetricID] = buf
}

func (b *eventBuffers) all() []domain.CanonicalEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.CanonicalEvent
	for _, buf := range b.byMetric {
		out = append(out, buf...)
	}
	return out
}
