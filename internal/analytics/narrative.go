package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/verdantiq/analytics/internal/domain"
)

const steadyNarrative = "Ecosystem signals are holding steady across all monitored metrics."

// severityScore ranks a metric's newsworthiness: anomaly grade dominates,
// then anomaly magnitude, then movement size.
func severityScore(m domain.MetricSnapshot) float64 {
	score := 0.0
	switch m.Anomaly.Status {
	case domain.StatusCritical:
		score += 1000
	case domain.StatusWarning:
		score += 500
	}
	return score + m.Anomaly.Magnitude + math.Abs(m.Delta)
}

// ComposeNarrative builds the one-sentence summary from the two most
// significant metrics, joined with "while".
func ComposeNarrative(metrics []domain.MetricSnapshot, focus map[string]string) string {
	if len(metrics) == 0 {
		return steadyNarrative
	}

	ranked := make([]domain.MetricSnapshot, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return severityScore(ranked[i]) > severityScore(ranked[j])
	})

	top := phrase(ranked[0], focus[ranked[0].ID])
	if len(ranked) == 1 {
		return top + "."
	}
	second := phrase(ranked[1], focus[ranked[1].ID])
	return top + " while " + second + "."
}

func phrase(m domain.MetricSnapshot, focus string) string {
	if m.Anomaly.Status != domain.StatusOK {
		return breachPhrase(m)
	}

	magnitude := FormatValue(math.Abs(m.Delta), m.Format)
	var movement string
	switch m.Direction {
	case domain.DirectionUp:
		movement = fmt.Sprintf("%s climbed %s", m.Label, magnitude)
	case domain.DirectionDown:
		movement = fmt.Sprintf("%s softened %s", m.Label, magnitude)
	default:
		movement = fmt.Sprintf("%s held steady", m.Label)
	}
	if focus != "" {
		movement += " " + focus
	}
	return movement
}

func breachPhrase(m domain.MetricSnapshot) string {
	boundary := "floor"
	if m.Anomaly.BreachedThreshold == domain.BreachUpper {
		boundary = "ceiling"
	}
	amount := FormatValue(m.Anomaly.Magnitude, m.Format)
	if m.Anomaly.Status == domain.StatusCritical {
		return fmt.Sprintf("%s pushed past its critical %s by %s", m.Label, boundary, amount)
	}
	return fmt.Sprintf("%s nudged its warning %s by %s", m.Label, boundary, amount)
}
