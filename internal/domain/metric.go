package domain

// ValueFormat selects how a metric value is rendered for humans.
type ValueFormat string

const (
	FormatCurrency   ValueFormat = "currency"
	FormatPercentage ValueFormat = "percentage"
	FormatDuration   ValueFormat = "duration"
	FormatCount      ValueFormat = "count"
)

// Thresholds is the configured anomaly band for a metric. Any bound may be
// absent; a metric with no bounds is never anomalous.
type Thresholds struct {
	UpperWarning  *float64 `json:"upperWarning,omitempty"`
	UpperCritical *float64 `json:"upperCritical,omitempty"`
	LowerWarning  *float64 `json:"lowerWarning,omitempty"`
	LowerCritical *float64 `json:"lowerCritical,omitempty"`
}

// Configured reports whether at least one bound is set.
func (t Thresholds) Configured() bool {
	return t.UpperWarning != nil || t.UpperCritical != nil || t.LowerWarning != nil || t.LowerCritical != nil
}

// SyntheticProfile drives the deterministic fallback waveform for a metric.
type SyntheticProfile struct {
	Baseline   float64 `json:"baseline"`
	Amplitude  float64 `json:"amplitude"`
	WavePeriod float64 `json:"wavePeriod"`
	Volatility float64 `json:"volatility"`
	Bias       float64 `json:"bias"`
	Floor      float64 `json:"floor"`
}

// MetricDefinition is the immutable catalog entry for a known metric.
// Constructed once at startup, never mutated afterwards.
type MetricDefinition struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Unit      string           `json:"unit"`
	Format    ValueFormat      `json:"format"`
	Bands     *Thresholds      `json:"thresholds,omitempty"`
	Focus     string           `json:"focus"`
	Synthetic SyntheticProfile `json:"synthetic"`
}
