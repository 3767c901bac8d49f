package analytics

import (
	"fmt"
	"math"

	"github.com/verdantiq/analytics/internal/domain"
)

// EvaluateAnomaly grades a metric's latest value against its configured
// band. It is a pure function: critical bounds dominate warning bounds, and
// a healthy metric reports the distance to its nearest configured threshold
// as magnitude (0 when no band is configured).
func EvaluateAnomaly(value float64, bands *domain.Thresholds, format domain.ValueFormat) domain.Anomaly {
	if bands == nil || !bands.Configured() {
		return domain.Anomaly{
			Status:  domain.StatusOK,
			Message: "No thresholds configured",
		}
	}

	if bands.UpperCritical != nil && value >= *bands.UpperCritical {
		return breach(value, *bands.UpperCritical, domain.StatusCritical, domain.BreachUpper,
			fmt.Sprintf("Above critical ceiling (%s)", FormatValue(*bands.UpperCritical, format)))
	}
	if bands.LowerCritical != nil && value <= *bands.LowerCritical {
		return breach(value, *bands.LowerCritical, domain.StatusCritical, domain.BreachLower,
			fmt.Sprintf("Below critical floor (%s)", FormatValue(*bands.LowerCritical, format)))
	}
	if bands.UpperWarning != nil && value >= *bands.UpperWarning {
		return breach(value, *bands.UpperWarning, domain.StatusWarning, domain.BreachUpper,
			fmt.Sprintf("Above warning ceiling (%s)", FormatValue(*bands.UpperWarning, format)))
	}
	if bands.LowerWarning != nil && value <= *bands.LowerWarning {
		return breach(value, *bands.LowerWarning, domain.StatusWarning, domain.BreachLower,
			fmt.Sprintf("Below warning floor (%s)", FormatValue(*bands.LowerWarning, format)))
	}

	return domain.Anomaly{
		Status:    domain.StatusOK,
		Message:   "Within configured bounds",
		Magnitude: round2(nearestDistance(value, bands)),
	}
}

func breach(value, threshold float64, status domain.AnomalyStatus, side domain.BreachSide, message string) domain.Anomaly {
	t := threshold
	return domain.Anomaly{
		Status:            status,
		BreachedThreshold: side,
		ThresholdValue:    &t,
		Message:           message,
		Magnitude:         round2(math.Abs(value - threshold)),
	}
}

func nearestDistance(value float64, bands *domain.Thresholds) float64 {
	nearest := math.Inf(1)
	for _, bound := range []*float64{bands.UpperWarning, bands.UpperCritical, bands.LowerWarning, bands.LowerCritical} {
		if bound == nil {
			continue
		}
		if d := math.Abs(value - *bound); d < nearest {
			nearest = d
		}
	}
	if math.IsInf(nearest, 1) {
		return 0
	}
	return nearest
}
