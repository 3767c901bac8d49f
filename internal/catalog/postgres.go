package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verdantiq/analytics/internal/domain"
)

// LoadPostgres fetches the catalog from the dashboard backend's
// metric_definitions table. The table is owned by the dashboard service;
// this reader treats it as an external collaborator and only selects.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool) (*Static, error) {
	const query = `SELECT id, label, unit, format, focus,
		upper_warning, upper_critical, lower_warning, lower_critical,
		synth_baseline, synth_amplitude, synth_wave_period, synth_volatility, synth_bias, synth_floor
		FROM metric_definitions ORDER BY position, id`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query metric definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.MetricDefinition
	for rows.Next() {
		var def domain.MetricDefinition
		var bands domain.Thresholds
		if err := rows.Scan(
			&def.ID, &def.Label, &def.Unit, &def.Format, &def.Focus,
			&bands.UpperWarning, &bands.UpperCritical, &bands.LowerWarning, &bands.LowerCritical,
			&def.Synthetic.Baseline, &def.Synthetic.Amplitude, &def.Synthetic.WavePeriod,
			&def.Synthetic.Volatility, &def.Synthetic.Bias, &def.Synthetic.Floor,
		); err != nil {
			return nil, fmt.Errorf("scan metric definition: %w", err)
		}
		if bands.Configured() {
			copied := bands
			def.Bands = &copied
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read metric definitions: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("metric_definitions table is empty")
	}
	return NewStatic(defs)
}
