package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verdantiq/analytics/internal/domain"
)

// Field spellings accepted from upstream producers, in priority order.
// Only these keys are consulted; arbitrary payload keys are never reflected on.
var (
	idFields        = []string{"metricId", "metric_id", "metricID"}
	timestampFields = []string{"timestamp", "timestampMs", "timestamp_ms", "eventTime"}
	valueFields     = []string{"value", "metricValue", "valueNumeric"}
)

// Normalizer converts untrusted raw payloads into CanonicalEvents. It is the
// sole trust boundary in front of the window store: anything with an unknown
// metric id, an unparseable timestamp, or a non-finite value is dropped.
type Normalizer struct {
	known map[string]struct{}
}

// NewNormalizer builds a Normalizer accepting the given metric ids.
func NewNormalizer(defs []domain.MetricDefinition) *Normalizer {
	known := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		known[def.ID] = struct{}{}
	}
	return &Normalizer{known: known}
}

// Normalize maps a raw payload to a CanonicalEvent. The boolean is false when
// the payload is rejected; Normalize never panics and has no side effects.
func (n *Normalizer) Normalize(raw map[string]any) (domain.CanonicalEvent, bool) {
	if len(raw) == 0 {
		return domain.CanonicalEvent{}, false
	}

	id, ok := firstString(raw, idFields)
	if !ok {
		return domain.CanonicalEvent{}, false
	}
	if _, known := n.known[id]; !known {
		return domain.CanonicalEvent{}, false
	}

	ts, ok := firstTimestamp(raw, timestampFields)
	if !ok {
		return domain.CanonicalEvent{}, false
	}

	value, ok := firstNumber(raw, valueFields)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return domain.CanonicalEvent{}, false
	}

	return domain.CanonicalEvent{MetricID: id, TimestampMillis: ts, Value: value}, true
}

func firstString(raw map[string]any, keys []string) (string, bool) {
	for _, key := range keys {
		v, present := raw[key]
		if !present {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func firstNumber(raw map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		v, present := raw[key]
		if !present {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func firstTimestamp(raw map[string]any, keys []string) (int64, bool) {
	for _, key := range keys {
		v, present := raw[key]
		if !present {
			continue
		}
		if ms, ok := toMillis(v); ok {
			return ms, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toMillis(v any) (int64, bool) {
	if f, ok := toFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	}
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return 0, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t.UnixMilli(), true
			}
		}
	}
	return 0, false
}

// DecodeText parses a UTF-8 payload into raw event maps: newline-delimited
// JSON objects first, else a whole-buffer JSON array or single object.
// Unparseable lines are skipped rather than failing the batch.
func DecodeText(data []byte) []map[string]any {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '[' {
		var arr []map[string]any
		if err := json.Unmarshal(trimmed, &arr); err == nil {
			return arr
		}
		return nil
	}

	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err == nil {
			out = append(out, obj)
		}
	}
	return out
}
