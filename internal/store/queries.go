package store

import (
	"context"
	"fmt"
	"time"
)

// DefectCount is one defect type's total within a window, fed to the
// defect analysis engine. Counts combine individual defect records and the
// aggregated matrix tallies.
type DefectCount struct {
	DefectCode string
	DefectName string
	Category   string
	LineCode   string
	Count      int
}

// DefectCounts sums defects by type within [from, to].
func (s *Store) DefectCounts(ctx context.Context, from, to time.Time) ([]DefectCount, error) {
	const q = `
		SELECT dt.code, dt.name, dt.category, COALESCE(src.line_code, ''), SUM(src.cnt)::int
		FROM (
			SELECT dr.defect_type_code AS code, qi.line_code, COUNT(*) AS cnt
			FROM defect_records dr
			JOIN quality_inspections qi ON dr.inspection_id = qi.id
			WHERE qi.inspected_at >= $1 AND qi.inspected_at <= $2
			GROUP BY dr.defect_type_code, qi.line_code
			UNION ALL
			SELECT t.defect_code, '', SUM(t.count)
			FROM defect_tallies t
			WHERE t.period >= $1 AND t.period <= $2
			GROUP BY t.defect_code
		) src
		JOIN defect_types dt ON dt.code = src.code
		GROUP BY dt.code, dt.name, dt.category, src.line_code
		ORDER BY SUM(src.cnt) DESC`
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query defect counts: %w", err)
	}
	defer rows.Close()

	var counts []DefectCount
	for rows.Next() {
		var c DefectCount
		if err := rows.Scan(&c.DefectCode, &c.DefectName, &c.Category, &c.LineCode, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan defect count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// COQInputs are the raw sums the cost-of-quality engine prices out.
type COQInputs struct {
	ReworkCost      float64
	ScrapCost       float64
	DownTimeMinutes int
	InspectionCount int
	TiresProduced   int
}

// AggregateCOQInputs sums the cost-of-quality raw inputs over [from, to].
func (s *Store) AggregateCOQInputs(ctx context.Context, from, to time.Time) (*COQInputs, error) {
	const q = `
		SELECT
			COALESCE((SELECT SUM(dr.rework_cost) FROM defect_records dr
				JOIN quality_inspections qi ON dr.inspection_id = qi.id
				WHERE qi.inspected_at >= $1 AND qi.inspected_at <= $2), 0),
			COALESCE((SELECT SUM(dr.scrap_cost) FROM defect_records dr
				JOIN quality_inspections qi ON dr.inspection_id = qi.id
				WHERE qi.inspected_at >= $1 AND qi.inspected_at <= $2), 0),
			COALESCE((SELECT SUM(minutes) FROM down_time_events
				WHERE start_time >= $1 AND start_time <= $2 AND status = 'resolved'), 0),
			COALESCE((SELECT COUNT(*) FROM quality_inspections
				WHERE inspected_at >= $1 AND inspected_at <= $2), 0),
			COALESCE((SELECT SUM(actual_quantity) FROM production_batches
				WHERE start_time >= $1 AND start_time <= $2), 0)`
	var in COQInputs
	err := s.db.QueryRowContext(ctx, q, from, to).Scan(
		&in.ReworkCost, &in.ScrapCost, &in.DownTimeMinutes, &in.InspectionCount, &in.TiresProduced)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate COQ inputs: %w", err)
	}
	return &in, nil
}

// WeightSample is one inspected tire weight with its day, fed to the
// X-bar/R chart which subgroups by day.
type WeightSample struct {
	Day    time.Time
	Weight float64
}

// WeightSamples returns recorded tire weights for a model within [from, to].
func (s *Store) WeightSamples(ctx context.Context, sku string, from, to time.Time) ([]WeightSample, error) {
	const q = `
		SELECT date_trunc('day', inspected_at), actual_weight
		FROM quality_inspections
		WHERE tire_model_sku = $1 AND actual_weight IS NOT NULL
			AND inspected_at >= $2 AND inspected_at <= $3
		ORDER BY inspected_at`
	rows, err := s.db.QueryContext(ctx, q, sku, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight samples: %w", err)
	}
	defer rows.Close()

	var samples []WeightSample
	for rows.Next() {
		var w WeightSample
		if err := rows.Scan(&w.Day, &w.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan weight sample: %w", err)
		}
		samples = append(samples, w)
	}
	return samples, rows.Err()
}

// OperatorWindowStats is one inspector's grade counts over a window.
type OperatorWindowStats struct {
	EmployeeID  string
	Name        string
	LineCode    string
	Shift       string
	GradeA      int
	GradeB      int
	GradeR      int
	Inspections int
}

// OperatorStats sums per-inspector grade counts over [from, to].
func (s *Store) OperatorStats(ctx context.Context, from, to time.Time) ([]OperatorWindowStats, error) {
	const q = `
		SELECT o.employee_id, o.name, o.line_code, o.shift,
			COUNT(*) FILTER (WHERE qi.grade = 'A'),
			COUNT(*) FILTER (WHERE qi.grade = 'B'),
			COUNT(*) FILTER (WHERE qi.grade = 'R'),
			COUNT(*)
		FROM operators o
		JOIN quality_inspections qi ON qi.inspector_id = o.employee_id
		WHERE qi.inspected_at >= $1 AND qi.inspected_at <= $2
		GROUP BY o.employee_id, o.name, o.line_code, o.shift
		ORDER BY o.employee_id`
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query operator stats: %w", err)
	}
	defer rows.Close()

	var stats []OperatorWindowStats
	for rows.Next() {
		var st OperatorWindowStats
		if err := rows.Scan(&st.EmployeeID, &st.Name, &st.LineCode, &st.Shift,
			&st.GradeA, &st.GradeB, &st.GradeR, &st.Inspections); err != nil {
			return nil, fmt.Errorf("failed to scan operator stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
