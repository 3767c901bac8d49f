package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/verdantiq/analytics/internal/domain"
)

// round2 rounds half away from zero to 2 decimal places, the rounding used
// for every served value, delta, and magnitude.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatValue renders a value for human-facing messages and the narrative.
func FormatValue(v float64, format domain.ValueFormat) string {
	switch format {
	case domain.FormatCurrency:
		return "$" + abbreviate(v)
	case domain.FormatPercentage:
		return trimFloat(round2(v)) + "%"
	case domain.FormatDuration:
		return trimFloat(round2(v)) + "ms"
	default:
		return abbreviate(v)
	}
}

func abbreviate(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return trimFloat(round2(v))
	}
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
