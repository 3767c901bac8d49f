package analytics

import (
	"math"

	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/window"
)

const (
	// deltas smaller than epsilon read as steady rather than noise
	directionEpsilon = 0.0001
	trendLength      = 10
)

// Builder derives a LiveAnalyticsSnapshot from whatever window data exists,
// substituting the synthetic waveform per metric where live data is absent.
type Builder struct {
	defs          []domain.MetricDefinition
	focus         map[string]string
	windowSeconds int
}

// NewBuilder constructs a Builder over the given catalog.
func NewBuilder(defs []domain.MetricDefinition, windowSeconds int) *Builder {
	if windowSeconds <= 0 {
		windowSeconds = 110
	}
	focus := make(map[string]string, len(defs))
	for _, def := range defs {
		focus[def.ID] = def.Focus
	}
	return &Builder{defs: defs, focus: focus, windowSeconds: windowSeconds}
}

// Build produces the served snapshot for the given instant. The reported
// windowSeconds is derived from the observed earliest/latest trend
// timestamps, not the configured window, matching the dashboard's contract.
func (b *Builder) Build(store *window.Store, nowMillis int64) domain.LiveAnalyticsSnapshot {
	tick := SyntheticTick(nowMillis)

	metrics := make([]domain.MetricSnapshot, 0, len(b.defs))
	var liveLatest, liveEarliest int64
	haveLive := false

	for _, def := range b.defs {
		events := store.Snapshot(def.ID, b.windowSeconds, trendLength)
		if len(events) == 0 {
			metrics = append(metrics, b.syntheticMetric(def, tick))
			continue
		}

		m := b.liveMetric(def, events)
		metrics = append(metrics, m)

		first := m.Trend[0].Timestamp
		last := m.Trend[len(m.Trend)-1].Timestamp
		if !haveLive {
			liveEarliest, liveLatest = first, last
			haveLive = true
			continue
		}
		if first < liveEarliest {
			liveEarliest = first
		}
		if last > liveLatest {
			liveLatest = last
		}
	}

	generatedAt, windowSeconds := spanOf(metrics, liveEarliest, liveLatest, haveLive)

	return domain.LiveAnalyticsSnapshot{
		GeneratedAt:   generatedAt,
		WindowSeconds: windowSeconds,
		Metrics:       metrics,
		Narrative:     ComposeNarrative(metrics, b.focus),
	}
}

func (b *Builder) liveMetric(def domain.MetricDefinition, events []domain.CanonicalEvent) domain.MetricSnapshot {
	trend := make([]domain.TrendPoint, len(events))
	for i, event := range events {
		trend[i] = domain.TrendPoint{Timestamp: event.TimestampMillis, Value: round2(event.Value)}
	}

	latest := trend[len(trend)-1].Value
	delta := 0.0
	if len(trend) > 1 {
		delta = round2(latest - trend[len(trend)-2].Value)
	}

	return domain.MetricSnapshot{
		ID:         def.ID,
		Label:      def.Label,
		Unit:       def.Unit,
		Format:     def.Format,
		Value:      latest,
		Delta:      delta,
		Direction:  directionOf(delta),
		Trend:      trend,
		Thresholds: def.Bands,
		Anomaly:    EvaluateAnomaly(latest, def.Bands, def.Format),
	}
}

func (b *Builder) syntheticMetric(def domain.MetricDefinition, tick int64) domain.MetricSnapshot {
	trend := SyntheticTrend(def, tick, trendLength)
	latest := trend[len(trend)-1].Value
	delta := round2(latest - trend[len(trend)-2].Value)

	return domain.MetricSnapshot{
		ID:         def.ID,
		Label:      def.Label,
		Unit:       def.Unit,
		Format:     def.Format,
		Value:      latest,
		Delta:      delta,
		Direction:  directionOf(delta),
		Trend:      trend,
		Thresholds: def.Bands,
		Anomaly:    EvaluateAnomaly(latest, def.Bands, def.Format),
	}
}

func directionOf(delta float64) domain.Direction {
	if math.Abs(delta) <= directionEpsilon {
		return domain.DirectionSteady
	}
	if delta > 0 {
		return domain.DirectionUp
	}
	return domain.DirectionDown
}

// spanOf picks the snapshot's generatedAt and derived window. Live
// timestamps win; an all-synthetic snapshot reports its own trend span.
func spanOf(metrics []domain.MetricSnapshot, liveEarliest, liveLatest int64, haveLive bool) (int64, int64) {
	if haveLive {
		return liveLatest, derivedWindowSeconds(liveEarliest, liveLatest)
	}
	for _, m := range metrics {
		if len(m.Trend) == 0 {
			continue
		}
		first := m.Trend[0].Timestamp
		last := m.Trend[len(m.Trend)-1].Timestamp
		return last, derivedWindowSeconds(first, last)
	}
	return 0, 1
}

func derivedWindowSeconds(earliest, latest int64) int64 {
	seconds := int64(math.Round(float64(latest-earliest) / 1000))
	if seconds < 1 {
		return 1
	}
	return seconds
}
