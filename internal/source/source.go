package source

import (
	"context"

	"github.com/verdantiq/analytics/internal/domain"
)

// Source is one acquisition strategy for canonical events. Fetch reports
// ok=false when the source is disabled or currently failing; it never
// returns an error because unavailability is an expected state here.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.CanonicalEvent, bool)
}

// Chain tries sources in priority order and returns the first non-empty
// result. An exhausted chain returns nil; the caller substitutes synthetic
// data so total unavailability is never an error.
type Chain struct {
	sources []Source
}

// NewChain builds a Chain, skipping nil entries.
func NewChain(sources ...Source) *Chain {
	kept := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Chain{sources: kept}
}

// Fetch walks the priority order until a source yields events.
func (c *Chain) Fetch(ctx context.Context) []domain.CanonicalEvent {
	if c == nil {
		return nil
	}
	for _, s := range c.sources {
		events, ok := s.Fetch(ctx)
		if ok && len(events) > 0 {
			return events
		}
	}
	return nil
}

// Sources exposes the configured adapters, for health reporting.
func (c *Chain) Sources() []Source {
	if c == nil {
		return nil
	}
	return c.sources
}
