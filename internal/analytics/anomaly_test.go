package analytics

import (
	"testing"

	"github.com/verdantiq/analytics/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestEvaluateAnomalyCriticalCeiling(t *testing.T) {
	bands := &domain.Thresholds{UpperWarning: ptr(45000000), UpperCritical: ptr(52000000)}

	a := EvaluateAnomaly(53000000, bands, domain.FormatCurrency)
	if a.Status != domain.StatusCritical {
		t.Fatalf("expected critical, got %s", a.Status)
	}
	if a.BreachedThreshold != domain.BreachUpper {
		t.Fatalf("expected upper breach, got %s", a.BreachedThreshold)
	}
	if a.ThresholdValue == nil || *a.ThresholdValue != 52000000 {
		t.Fatalf("unexpected threshold value %v", a.ThresholdValue)
	}
	if a.Magnitude != 1000000 {
		t.Fatalf("expected magnitude 1000000, got %v", a.Magnitude)
	}
	if a.Message == "" {
		t.Fatal("expected a human message")
	}
}

func TestEvaluateAnomalyLowerWarning(t *testing.T) {
	bands := &domain.Thresholds{LowerWarning: ptr(70), LowerCritical: ptr(60)}

	a := EvaluateAnomaly(65, bands, domain.FormatPercentage)
	if a.Status != domain.StatusWarning {
		t.Fatalf("expected warning, got %s", a.Status)
	}
	if a.BreachedThreshold != domain.BreachLower {
		t.Fatalf("expected lower breach, got %s", a.BreachedThreshold)
	}
	if a.Magnitude != 5 {
		t.Fatalf("expected magnitude 5, got %v", a.Magnitude)
	}
}

func TestEvaluateAnomalyCriticalDominatesWarning(t *testing.T) {
	bands := &domain.Thresholds{LowerWarning: ptr(70), LowerCritical: ptr(60)}

	a := EvaluateAnomaly(55, bands, domain.FormatPercentage)
	if a.Status != domain.StatusCritical {
		t.Fatalf("expected critical to dominate, got %s", a.Status)
	}
	if a.ThresholdValue == nil || *a.ThresholdValue != 60 {
		t.Fatalf("unexpected threshold value %v", a.ThresholdValue)
	}
}

func TestEvaluateAnomalyHealthyReportsNearestDistance(t *testing.T) {
	bands := &domain.Thresholds{LowerWarning: ptr(70), UpperWarning: ptr(95)}

	a := EvaluateAnomaly(80, bands, domain.FormatPercentage)
	if a.Status != domain.StatusOK {
		t.Fatalf("expected ok, got %s", a.Status)
	}
	if a.BreachedThreshold != "" {
		t.Fatalf("expected no breach side, got %s", a.BreachedThreshold)
	}
	if a.Magnitude != 10 {
		t.Fatalf("expected distance to nearest threshold 10, got %v", a.Magnitude)
	}
}

func TestEvaluateAnomalyWithoutThresholds(t *testing.T) {
	a := EvaluateAnomaly(42, nil, domain.FormatCount)
	if a.Status != domain.StatusOK {
		t.Fatalf("expected ok, got %s", a.Status)
	}
	if a.Magnitude != 0 {
		t.Fatalf("expected zero magnitude, got %v", a.Magnitude)
	}
}

func TestEvaluateAnomalyRoundsMagnitude(t *testing.T) {
	bands := &domain.Thresholds{UpperWarning: ptr(100)}

	a := EvaluateAnomaly(101.23456, bands, domain.FormatCount)
	if a.Magnitude != 1.23 {
		t.Fatalf("expected magnitude rounded to 1.23, got %v", a.Magnitude)
	}
}
