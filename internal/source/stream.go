package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/ingest"
)

const (
	defaultPollInterval = 15 * time.Second
	minPollInterval     = 2 * time.Second
	maxStreamBody       = 4 << 20
)

// StreamPoller fetches a remote HTTP feed of raw events, memoizing the
// result for a short poll interval so bursts of snapshot builds cannot
// hammer the upstream. Fetch and parse failures fall through silently.
type StreamPoller struct {
	url        string
	interval   time.Duration
	client     *http.Client
	normalizer *ingest.Normalizer
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	lastPoll time.Time
	lastOK   bool
	cached   []domain.CanonicalEvent
}

// NewStreamPoller builds a poller, or nil when no URL is configured.
func NewStreamPoller(url string, interval time.Duration, normalizer *ingest.Normalizer, logger *slog.Logger) *StreamPoller {
	if url == "" {
		return nil
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if interval < minPollInterval {
		interval = minPollInterval
	}
	if logger != nil {
		logger = logger.With("component", "stream_poller")
	}
	return &StreamPoller{
		url:        url,
		interval:   interval,
		client:     &http.Client{Timeout: 10 * time.Second},
		normalizer: normalizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Name identifies the adapter in health output.
func (p *StreamPoller) Name() string { return "stream" }

// Healthy reports whether the most recent poll succeeded.
func (p *StreamPoller) Healthy() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastOK
}

// Fetch returns the memoized events when the poll interval has not elapsed,
// otherwise performs one HTTP fetch. A failed fetch is also memoized so a
// dead upstream is retried at most once per interval.
func (p *StreamPoller) Fetch(ctx context.Context) ([]domain.CanonicalEvent, bool) {
	if p == nil {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if !p.lastPoll.IsZero() && now.Sub(p.lastPoll) < p.interval {
		return copyEvents(p.cached), p.lastOK
	}
	p.lastPoll = now

	events, err := p.poll(ctx)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("stream poll failed", "url", p.url, "error", err)
		}
		p.cached = nil
		p.lastOK = false
		return nil, false
	}
	p.cached = events
	p.lastOK = true
	return copyEvents(events), true
}

func (p *StreamPoller) poll(ctx context.Context) ([]domain.CanonicalEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/x-ndjson")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStreamBody))
	if err != nil {
		return nil, err
	}

	var events []domain.CanonicalEvent
	for _, raw := range ingest.DecodeText(body) {
		if event, ok := p.normalizer.Normalize(raw); ok {
			events = append(events, event)
		}
	}
	return events, nil
}

func copyEvents(events []domain.CanonicalEvent) []domain.CanonicalEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]domain.CanonicalEvent, len(events))
	copy(out, events)
	return out
}
