package domain

// CanonicalEvent is a normalized, trusted metric observation. The metric id
// always matches a catalog entry and the value is always finite; anything
// failing those checks is dropped at the normalization boundary.
type CanonicalEvent struct {
	MetricID        string  `json:"metricId"`
	TimestampMillis int64   `json:"timestamp"`
	Value           float64 `json:"value"`
}
