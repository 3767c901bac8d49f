package analytics

import (
	"hash/fnv"
	"math"

	"github.com/verdantiq/analytics/internal/domain"
)

// Tick granularity of the synthetic waveform. Every request inside the same
// 15 second tick observes identical synthetic values, which keeps the
// fallback stable across concurrent builds and assertable in tests.
const syntheticTickMillis = 15000

// SyntheticTick maps a wall-clock instant to the waveform tick.
func SyntheticTick(nowMillis int64) int64 {
	return nowMillis / syntheticTickMillis
}

// SyntheticValue computes the deterministic fallback value for one metric at
// one tick. Identical (metricID, tick) inputs yield bit-identical output.
func SyntheticValue(metricID string, profile domain.SyntheticProfile, tick int64) float64 {
	seed := metricSeed(metricID)
	period := profile.WavePeriod
	if period <= 0 {
		period = 10
	}
	phase := float64(seed % 997)

	wave := profile.Amplitude * math.Sin((float64(tick)+phase)/period)
	jitter := noise(seed, tick) * profile.Volatility
	drift := profile.Bias * math.Sin(float64(tick)/(period*3))

	v := profile.Baseline + wave + jitter + drift
	if v < profile.Floor {
		v = profile.Floor
	}
	return v
}

// SyntheticTrend renders the trailing n ticks as a trend series ending at
// the given tick, one point per tick.
func SyntheticTrend(def domain.MetricDefinition, tick int64, n int) []domain.TrendPoint {
	if n <= 0 {
		n = 10
	}
	points := make([]domain.TrendPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		t := tick - int64(i)
		points = append(points, domain.TrendPoint{
			Timestamp: t * syntheticTickMillis,
			Value:     round2(SyntheticValue(def.ID, def.Synthetic, t)),
		})
	}
	return points
}

func metricSeed(metricID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(metricID))
	return h.Sum64()
}

// noise maps (seed, tick) to a deterministic pseudo-random value in [-1, 1].
func noise(seed uint64, tick int64) float64 {
	x := seed ^ (uint64(tick) * 0x9E3779B97F4A7C15)
	x ^= x >> 33
	x *= 0xFF51AFD7ED558CCD
	x ^= x >> 33
	x *= 0xC4CEB9FE1A85EC53
	x ^= x >> 33
	return float64(x>>11)/float64(1<<52) - 1
}
