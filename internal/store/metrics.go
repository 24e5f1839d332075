package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tirepulse/pkg/contracts/domain"
)

// UpsertDailyMetric overwrites the aggregate for its (date, line, shift)
// key. Recomputation always replaces, never sums, so re-running for the
// same key is idempotent.
func (s *Store) UpsertDailyMetric(ctx context.Context, m *domain.DailyQualityMetric) error {
	const q = `
		INSERT INTO daily_quality_metrics
			(id, date, line_code, shift, total_produced, grade_a, grade_b, grade_r,
			 br_rate, yield_rate, defect_count, defect_rate, inspection_count, down_time_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (date, line_code, shift) DO UPDATE SET
			total_produced = EXCLUDED.total_produced,
			grade_a = EXCLUDED.grade_a,
			grade_b = EXCLUDED.grade_b,
			grade_r = EXCLUDED.grade_r,
			br_rate = EXCLUDED.br_rate,
			yield_rate = EXCLUDED.yield_rate,
			defect_count = EXCLUDED.defect_count,
			defect_rate = EXCLUDED.defect_rate,
			inspection_count = EXCLUDED.inspection_count,
			down_time_minutes = EXCLUDED.down_time_minutes,
			updated_at = now()`
	_, err := s.db.ExecContext(ctx, q,
		uuid.New().String(), m.Date, m.LineCode, m.Shift, m.TotalProduced,
		m.GradeA, m.GradeB, m.GradeR, m.BRRate, m.YieldRate,
		m.DefectCount, m.DefectRate, m.InspectionCount, m.DownTimeMinutes)
	if err != nil {
		return fmt.Errorf("failed to upsert daily metric %s/%s: %w", m.Date.Format("2006-01-02"), m.LineCode, err)
	}
	return nil
}

// ListDailyMetrics returns metrics for a line (or all lines when lineCode
// is empty) within [from, to], oldest first.
func (s *Store) ListDailyMetrics(ctx context.Context, lineCode string, from, to time.Time) ([]domain.DailyQualityMetric, error) {
	const q = `
		SELECT id, date, line_code, shift, total_produced, grade_a, grade_b, grade_r,
			   br_rate, yield_rate, defect_count, defect_rate, inspection_count, down_time_minutes,
			   created_at, updated_at
		FROM daily_quality_metrics
		WHERE ($1 = '' OR line_code = $1) AND date >= $2 AND date <= $3
		ORDER BY date, line_code, shift`
	rows, err := s.db.QueryContext(ctx, q, lineCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily metrics: %w", err)
	}
	defer rows.Close()

	var metrics []domain.DailyQualityMetric
	for rows.Next() {
		var m domain.DailyQualityMetric
		if err := rows.Scan(&m.ID, &m.Date, &m.LineCode, &m.Shift, &m.TotalProduced,
			&m.GradeA, &m.GradeB, &m.GradeR, &m.BRRate, &m.YieldRate,
			&m.DefectCount, &m.DefectRate, &m.InspectionCount, &m.DownTimeMinutes,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// DayKey identifies one (date, line, shift) aggregate.
type DayKey struct {
	Date     time.Time
	LineCode string
	Shift    string
}

// DirtyDayKeys returns the aggregate keys that have inspections created or
// batches updated after the given watermark, i.e. the keys the metrics
// engine needs to recompute.
func (s *Store) DirtyDayKeys(ctx context.Context, since time.Time) ([]DayKey, error) {
	const q = `
		SELECT DISTINCT date_trunc('day', inspected_at) AS d, line_code, shift
		FROM quality_inspections WHERE created_at >= $1
		UNION
		SELECT DISTINCT date_trunc('day', start_time), line_code, shift
		FROM production_batches WHERE updated_at >= $1
		ORDER BY 1, 2, 3`
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("failed to find dirty day keys: %w", err)
	}
	defer rows.Close()

	var keys []DayKey
	for rows.Next() {
		var k DayKey
		if err := rows.Scan(&k.Date, &k.LineCode, &k.Shift); err != nil {
			return nil, fmt.Errorf("failed to scan day key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// InspectionAggregate holds the per-key inspection sums used to build a
// daily metric.
type InspectionAggregate struct {
	GradeA      int
	GradeB      int
	GradeR      int
	Inspections int
	Defects     int
}

// AggregateInspections sums grades and defects for one (date, line, shift).
func (s *Store) AggregateInspections(ctx context.Context, key DayKey) (*InspectionAggregate, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE grade = 'A'),
			COUNT(*) FILTER (WHERE grade = 'B'),
			COUNT(*) FILTER (WHERE grade = 'R'),
			COUNT(*),
			COALESCE((SELECT COUNT(*) FROM defect_records dr
				JOIN quality_inspections qi2 ON dr.inspection_id = qi2.id
				WHERE date_trunc('day', qi2.inspected_at) = $1 AND qi2.line_code = $2 AND qi2.shift = $3), 0)
		FROM quality_inspections
		WHERE date_trunc('day', inspected_at) = $1 AND line_code = $2 AND shift = $3`
	var agg InspectionAggregate
	err := s.db.QueryRowContext(ctx, q, key.Date, key.LineCode, key.Shift).Scan(
		&agg.GradeA, &agg.GradeB, &agg.GradeR, &agg.Inspections, &agg.Defects)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate inspections: %w", err)
	}
	return &agg, nil
}

// BatchAggregate holds the per-key batch sums.
type BatchAggregate struct {
	Produced int
	GradeA   int
	GradeB   int
	GradeR   int
}

// AggregateBatches sums batch quantities for one (date, line, shift).
func (s *Store) AggregateBatches(ctx context.Context, key DayKey) (*BatchAggregate, error) {
	const q = `
		SELECT COALESCE(SUM(actual_quantity), 0), COALESCE(SUM(grade_a), 0),
			   COALESCE(SUM(grade_b), 0), COALESCE(SUM(grade_r), 0)
		FROM production_batches
		WHERE date_trunc('day', start_time) = $1 AND line_code = $2 AND ($3 = '' OR shift = $3)`
	var agg BatchAggregate
	err := s.db.QueryRowContext(ctx, q, key.Date, key.LineCode, key.Shift).Scan(
		&agg.Produced, &agg.GradeA, &agg.GradeB, &agg.GradeR)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate batches: %w", err)
	}
	return &agg, nil
}

// DownTimeMinutes sums resolved down-time for a line on a day.
func (s *Store) DownTimeMinutes(ctx context.Context, date time.Time, lineCode string) (int, error) {
	const q = `
		SELECT COALESCE(SUM(minutes), 0)
		FROM down_time_events
		WHERE line_code = $2 AND date_trunc('day', start_time) = $1 AND status = 'resolved'`
	var minutes int
	if err := s.db.QueryRowContext(ctx, q, date, lineCode).Scan(&minutes); err != nil {
		return 0, fmt.Errorf("failed to sum down-time minutes: %w", err)
	}
	return minutes, nil
}
