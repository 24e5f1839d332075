package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tirepulse/pkg/contracts/domain"
)

// ErrOngoingDownTime is returned when creating an ongoing down-time event
// would leave a line with two open events at once.
var ErrOngoingDownTime = errors.New("line already has an ongoing down-time event")

// UpsertBatch writes a production batch keyed by batch number. Re-loading
// identical data reports Skipped; differing data is overwritten last-write-
// wins on non-identity fields.
func (s *Store) UpsertBatch(ctx context.Context, b *domain.ProductionBatch) (UpsertOutcome, error) {
	const q = `
		INSERT INTO production_batches
			(id, batch_number, tire_model_sku, line_code, shift, target_quantity, actual_quantity,
			 grade_a, grade_b, grade_r, br_rate, yield_rate, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (batch_number) DO UPDATE SET
			tire_model_sku = EXCLUDED.tire_model_sku,
			line_code = EXCLUDED.line_code,
			shift = EXCLUDED.shift,
			target_quantity = EXCLUDED.target_quantity,
			actual_quantity = EXCLUDED.actual_quantity,
			grade_a = EXCLUDED.grade_a,
			grade_b = EXCLUDED.grade_b,
			grade_r = EXCLUDED.grade_r,
			br_rate = EXCLUDED.br_rate,
			yield_rate = EXCLUDED.yield_rate,
			status = EXCLUDED.status,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			updated_at = now()
		WHERE (production_batches.actual_quantity, production_batches.grade_a, production_batches.grade_b,
			   production_batches.grade_r, production_batches.status)
			IS DISTINCT FROM
			  (EXCLUDED.actual_quantity, EXCLUDED.grade_a, EXCLUDED.grade_b, EXCLUDED.grade_r, EXCLUDED.status)
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), b.BatchNumber, b.TireModelSKU, b.LineCode, b.Shift,
		b.TargetQuantity, b.ActualQuantity, b.GradeA, b.GradeB, b.GradeR,
		b.BRRate, b.YieldRate, b.Status, b.StartTime, b.EndTime)
}

// UpsertInspection writes an inspection keyed by tire serial number.
// Inspections are immutable apart from disposition, so only that field is
// updated on conflict.
func (s *Store) UpsertInspection(ctx context.Context, i *domain.QualityInspection) (UpsertOutcome, error) {
	const q = `
		INSERT INTO quality_inspections
			(id, serial_number, tire_model_sku, batch_number, line_code, inspector_id, shift, grade, actual_weight, disposition, inspected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (serial_number) DO UPDATE SET
			disposition = EXCLUDED.disposition
		WHERE quality_inspections.disposition IS DISTINCT FROM EXCLUDED.disposition
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), i.SerialNumber, i.TireModelSKU, i.BatchNumber, i.LineCode,
		i.InspectorID, i.Shift, i.Grade, i.ActualWeight, i.Disposition, i.InspectedAt)
}

// InspectionIDBySerial resolves an inspection's surrogate ID.
func (s *Store) InspectionIDBySerial(ctx context.Context, serialNumber string) (string, error) {
	const q = `SELECT id FROM quality_inspections WHERE serial_number = $1`
	var id string
	if err := s.db.QueryRowContext(ctx, q, serialNumber).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("inspection %s not found", serialNumber)
		}
		return "", fmt.Errorf("failed to resolve inspection %s: %w", serialNumber, err)
	}
	return id, nil
}

// UpsertDefectRecord writes a defect record keyed by (inspection, defect
// type); the same defect on the same tire is a single record.
func (s *Store) UpsertDefectRecord(ctx context.Context, r *domain.DefectRecord) (UpsertOutcome, error) {
	const q = `
		INSERT INTO defect_records (id, inspection_id, defect_type_code, location, rework_cost, scrap_cost)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (inspection_id, defect_type_code) DO UPDATE SET
			location = EXCLUDED.location,
			rework_cost = EXCLUDED.rework_cost,
			scrap_cost = EXCLUDED.scrap_cost
		WHERE (defect_records.location, defect_records.rework_cost, defect_records.scrap_cost)
			IS DISTINCT FROM (EXCLUDED.location, EXCLUDED.rework_cost, EXCLUDED.scrap_cost)
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), r.InspectionID, r.DefectTypeCode, r.Location, r.ReworkCost, r.ScrapCost)
}

// UpsertDownTime writes a resolved down-time event keyed by
// (line, start time, category).
func (s *Store) UpsertDownTime(ctx context.Context, e *domain.DownTimeEvent) (UpsertOutcome, error) {
	const q = `
		INSERT INTO down_time_events (id, line_code, category, reason, start_time, end_time, minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (line_code, start_time, category) DO UPDATE SET
			reason = EXCLUDED.reason,
			end_time = EXCLUDED.end_time,
			minutes = EXCLUDED.minutes,
			status = EXCLUDED.status,
			updated_at = now()
		WHERE (down_time_events.end_time, down_time_events.minutes, down_time_events.status)
			IS DISTINCT FROM (EXCLUDED.end_time, EXCLUDED.minutes, EXCLUDED.status)
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), e.LineCode, e.Category, e.Reason, e.StartTime, e.EndTime, e.Minutes, e.Status)
}

// CreateOngoingDownTime opens a live down-time event. The partial unique
// index on (line_code) WHERE status='ongoing' makes the one-open-event-per-
// line invariant atomic; a second open event maps to ErrOngoingDownTime.
func (s *Store) CreateOngoingDownTime(ctx context.Context, e *domain.DownTimeEvent) error {
	const q = `
		INSERT INTO down_time_events (id, line_code, category, reason, start_time, minutes, status)
		VALUES ($1, $2, $3, $4, $5, 0, 'ongoing')`
	_, err := s.db.ExecContext(ctx, q, uuid.New().String(), e.LineCode, e.Category, e.Reason, e.StartTime)
	if err != nil {
		if strings.Contains(err.Error(), "idx_downtime_one_ongoing_per_line") {
			return fmt.Errorf("%w: line %s", ErrOngoingDownTime, e.LineCode)
		}
		return fmt.Errorf("failed to create ongoing down-time: %w", err)
	}
	return nil
}

// ResolveDownTime closes the line's ongoing event at the given end time.
func (s *Store) ResolveDownTime(ctx context.Context, lineCode string, endTime time.Time) error {
	const q = `
		UPDATE down_time_events
		SET end_time = $2,
			minutes = GREATEST(0, CAST(EXTRACT(EPOCH FROM ($2 - start_time)) / 60 AS INTEGER)),
			status = 'resolved',
			updated_at = now()
		WHERE line_code = $1 AND status = 'ongoing'`
	res, err := s.db.ExecContext(ctx, q, lineCode, endTime)
	if err != nil {
		return fmt.Errorf("failed to resolve down-time for line %s: %w", lineCode, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no ongoing down-time event for line %s", lineCode)
	}
	return nil
}

// UpsertDefectTally writes one period/defect/size tally cell.
func (s *Store) UpsertDefectTally(ctx context.Context, t *domain.DefectTally) (UpsertOutcome, error) {
	const q = `
		INSERT INTO defect_tallies (id, period, defect_code, tire_size, count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (period, defect_code, tire_size) DO UPDATE SET
			count = EXCLUDED.count,
			updated_at = now()
		WHERE defect_tallies.count IS DISTINCT FROM EXCLUDED.count
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q, uuid.New().String(), t.Period, t.DefectCode, t.TireSize, t.Count)
}

// UpsertMeetingSummary writes one line's daily meeting extract.
func (s *Store) UpsertMeetingSummary(ctx context.Context, m *domain.MeetingSummary) (UpsertOutcome, error) {
	const q = `
		INSERT INTO meeting_summaries (id, date, line_code, reported_br_rate, reported_output, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date, line_code) DO UPDATE SET
			reported_br_rate = EXCLUDED.reported_br_rate,
			reported_output = EXCLUDED.reported_output,
			notes = EXCLUDED.notes,
			updated_at = now()
		WHERE (meeting_summaries.reported_br_rate, meeting_summaries.reported_output, meeting_summaries.notes)
			IS DISTINCT FROM (EXCLUDED.reported_br_rate, EXCLUDED.reported_output, EXCLUDED.notes)
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), m.Date, m.LineCode, m.ReportedBRRate, m.ReportedOutput, strings.Join(m.Notes, "\n"))
}
