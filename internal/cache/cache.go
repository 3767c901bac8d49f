package cache

import (
	"context"
	"sync"
	"time"

	"github.com/verdantiq/analytics/internal/domain"
)

const sweepInterval = time.Minute

// Store memoizes the most recent snapshot for its TTL. Entries are
// idempotent overwrites: concurrent rebuilds racing on a miss are wasteful
// but never unsafe.
type Store interface {
	Get(ctx context.Context) (domain.LiveAnalyticsSnapshot, bool)
	Set(ctx context.Context, snapshot domain.LiveAnalyticsSnapshot, ttl time.Duration)
	Close()
}

type memoryStore struct {
	mu        sync.Mutex
	snapshot  domain.LiveAnalyticsSnapshot
	expiresAt time.Time
	hasValue  bool
	now       func() time.Time
	stopCh    chan struct{}
	once      sync.Once
}

// NewMemory returns a local-only snapshot store with background expiry.
func NewMemory() Store {
	s := &memoryStore{
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *memoryStore) Get(_ context.Context) (domain.LiveAnalyticsSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasValue || s.now().After(s.expiresAt) {
		return domain.LiveAnalyticsSnapshot{}, false
	}
	return s.snapshot, true
}

func (s *memoryStore) Set(_ context.Context, snapshot domain.LiveAnalyticsSnapshot, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.expiresAt = s.now().Add(ttl)
	s.hasValue = true
}

func (s *memoryStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.hasValue && s.now().After(s.expiresAt) {
				s.hasValue = false
				s.snapshot = domain.LiveAnalyticsSnapshot{}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *memoryStore) Close() {
	s.once.Do(func() {
		close(s.stopCh)
	})
}
