package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/verdantiq/analytics/internal/domain"
)

// Provider supplies the immutable metric catalog at service start.
type Provider interface {
	Definitions() []domain.MetricDefinition
}

// Static is a Provider over a fixed, validated definition list.
type Static struct {
	defs []domain.MetricDefinition
}

// NewStatic validates and wraps a definition list. Blank or duplicate ids
// are rejected so every CanonicalEvent can be traced to exactly one entry.
func NewStatic(defs []domain.MetricDefinition) (*Static, error) {
	seen := make(map[string]struct{}, len(defs))
	cleaned := make([]domain.MetricDefinition, 0, len(defs))
	for _, def := range defs {
		def.ID = strings.TrimSpace(def.ID)
		if def.ID == "" {
			return nil, fmt.Errorf("catalog entry with empty id")
		}
		if _, dup := seen[def.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", def.ID)
		}
		seen[def.ID] = struct{}{}
		if def.Label == "" {
			def.Label = def.ID
		}
		if def.Format == "" {
			def.Format = domain.FormatCount
		}
		cleaned = append(cleaned, def)
	}
	return &Static{defs: cleaned}, nil
}

// Definitions returns the catalog in declaration order.
func (s *Static) Definitions() []domain.MetricDefinition {
	out := make([]domain.MetricDefinition, len(s.defs))
	copy(out, s.defs)
	return out
}

// LoadFile reads a JSON catalog file (array of MetricDefinition).
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var defs []domain.MetricDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return NewStatic(defs)
}

func ptr(v float64) *float64 { return &v }

// Default returns the built-in ecosystem catalog used when no file or
// database source is configured.
func Default() *Static {
	s, err := NewStatic([]domain.MetricDefinition{
		{
			ID:     "gross_pollination_value",
			Label:  "Gross Pollination Value",
			Unit:   "USD",
			Format: domain.FormatCurrency,
			Bands: &domain.Thresholds{
				UpperWarning:  ptr(45000000),
				UpperCritical: ptr(52000000),
			},
			Focus: "as seasonal pollinator contracts settle",
			Synthetic: domain.SyntheticProfile{
				Baseline:   38500000,
				Amplitude:  2400000,
				WavePeriod: 9,
				Volatility: 650000,
				Bias:       120000,
				Floor:      0,
			},
		},
		{
			ID:     "habitat_integrity",
			Label:  "Habitat Integrity",
			Unit:   "%",
			Format: domain.FormatPercentage,
			Bands: &domain.Thresholds{
				LowerWarning:  ptr(70),
				LowerCritical: ptr(60),
			},
			Focus: "across monitored conservation zones",
			Synthetic: domain.SyntheticProfile{
				Baseline:   82,
				Amplitude:  4.5,
				WavePeriod: 12,
				Volatility: 1.8,
				Floor:      0,
			},
		},
		{
			ID:     "sensor_sync_latency",
			Label:  "Sensor Sync Latency",
			Unit:   "ms",
			Format: domain.FormatDuration,
			Bands: &domain.Thresholds{
				UpperWarning:  ptr(850),
				UpperCritical: ptr(1500),
			},
			Focus: "from the remote telemetry mesh",
			Synthetic: domain.SyntheticProfile{
				Baseline:   420,
				Amplitude:  90,
				WavePeriod: 7,
				Volatility: 35,
				Floor:      5,
			},
		},
		{
			ID:     "species_observations",
			Label:  "Species Observations",
			Unit:   "sightings",
			Format: domain.FormatCount,
			Focus:  "logged by field stations this window",
			Synthetic: domain.SyntheticProfile{
				Baseline:   1240,
				Amplitude:  180,
				WavePeriod: 10,
				Volatility: 60,
				Bias:       8,
				Floor:      0,
			},
		},
		{
			ID:     "water_quality_index",
			Label:  "Water Quality Index",
			Unit:   "%",
			Format: domain.FormatPercentage,
			Bands: &domain.Thresholds{
				LowerWarning:  ptr(65),
				LowerCritical: ptr(50),
			},
			Focus: "across riparian sampling sites",
			Synthetic: domain.SyntheticProfile{
				Baseline:   74,
				Amplitude:  6,
				WavePeriod: 14,
				Volatility: 2.2,
				Floor:      0,
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return s
}
