package domain

// Direction classifies the movement between the two latest trend values.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionSteady Direction = "steady"
)

// AnomalyStatus grades a metric against its configured band.
type AnomalyStatus string

const (
	StatusOK       AnomalyStatus = "ok"
	StatusWarning  AnomalyStatus = "warning"
	StatusCritical AnomalyStatus = "critical"
)

// BreachSide names which boundary of the band was crossed.
type BreachSide string

const (
	BreachUpper BreachSide = "upper"
	BreachLower BreachSide = "lower"
)

// TrendPoint is one plotted value, rounded to 2 decimal places.
type TrendPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Anomaly is the evaluated band status for a metric's latest value.
// When healthy, Magnitude is the distance to the nearest configured
// threshold (0 if none configured).
type Anomaly struct {
	Status            AnomalyStatus `json:"status"`
	BreachedThreshold BreachSide    `json:"breachedThreshold,omitempty"`
	ThresholdValue    *float64      `json:"thresholdValue,omitempty"`
	Message           string        `json:"message"`
	Magnitude         float64       `json:"magnitude"`
}

// MetricSnapshot is the per-metric slice of a served snapshot.
type MetricSnapshot struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Unit       string       `json:"unit"`
	Format     ValueFormat  `json:"format"`
	Value      float64      `json:"value"`
	Delta      float64      `json:"delta"`
	Direction  Direction    `json:"direction"`
	Trend      []TrendPoint `json:"trend"`
	Thresholds *Thresholds  `json:"thresholds,omitempty"`
	Anomaly    Anomaly      `json:"anomaly"`
}

// LiveAnalyticsSnapshot is the served artifact. Immutable once built and
// cached by value; concurrent rebuilds overwrite each other harmlessly.
type LiveAnalyticsSnapshot struct {
	GeneratedAt   int64            `json:"generatedAt"`
	WindowSeconds int64            `json:"windowSeconds"`
	Metrics       []MetricSnapshot `json:"metrics"`
	Narrative     string           `json:"narrative"`
}
