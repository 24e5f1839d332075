package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tirepulse/pkg/contracts/domain"
)

// EnsureLine creates the production line on first reference and returns its
// code. The insert-or-ignore is atomic on the unique code constraint, so
// concurrent sync jobs cannot create duplicates.
func (s *Store) EnsureLine(ctx context.Context, code string) error {
	const q = `
		INSERT INTO production_lines (id, code, name)
		VALUES ($1, $2, $2)
		ON CONFLICT (code) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, uuid.New().String(), code); err != nil {
		return fmt.Errorf("failed to ensure line %s: %w", code, err)
	}
	return nil
}

// GetLine loads a production line by code.
func (s *Store) GetLine(ctx context.Context, code string) (*domain.ProductionLine, error) {
	const q = `
		SELECT id, code, name, target_br_rate, capacity, status, created_at, updated_at
		FROM production_lines WHERE code = $1`
	var l domain.ProductionLine
	err := s.db.QueryRowContext(ctx, q, code).Scan(
		&l.ID, &l.Code, &l.Name, &l.TargetBRRate, &l.Capacity, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get line %s: %w", code, err)
	}
	return &l, nil
}

// ListLines returns all production lines ordered by code.
func (s *Store) ListLines(ctx context.Context) ([]domain.ProductionLine, error) {
	const q = `
		SELECT id, code, name, target_br_rate, capacity, status, created_at, updated_at
		FROM production_lines ORDER BY code`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.ProductionLine
	for rows.Next() {
		var l domain.ProductionLine
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.TargetBRRate, &l.Capacity, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SetLineStatus updates a line's operational status.
func (s *Store) SetLineStatus(ctx context.Context, code string, status domain.LineStatus) error {
	const q = `UPDATE production_lines SET status = $2, updated_at = now() WHERE code = $1`
	res, err := s.db.ExecContext(ctx, q, code, status)
	if err != nil {
		return fmt.Errorf("failed to set line status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("line %s not found", code)
	}
	return nil
}

// EnsureTireModel creates the tire model on first reference.
func (s *Store) EnsureTireModel(ctx context.Context, sku string) error {
	const q = `
		INSERT INTO tire_models (id, sku, name)
		VALUES ($1, $2, $2)
		ON CONFLICT (sku) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, uuid.New().String(), sku); err != nil {
		return fmt.Errorf("failed to ensure tire model %s: %w", sku, err)
	}
	return nil
}

// UpsertTireModel writes a full catalog record, keeping the weight-order
// invariant with the table's check constraint.
func (s *Store) UpsertTireModel(ctx context.Context, m *domain.TireModel) (UpsertOutcome, error) {
	const q = `
		INSERT INTO tire_models (id, sku, name, category, target_weight, min_weight, max_weight, curing_time_mins, curing_temp_c)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			target_weight = EXCLUDED.target_weight,
			min_weight = EXCLUDED.min_weight,
			max_weight = EXCLUDED.max_weight,
			curing_time_mins = EXCLUDED.curing_time_mins,
			curing_temp_c = EXCLUDED.curing_temp_c,
			updated_at = now()
		WHERE (tire_models.name, tire_models.category, tire_models.target_weight, tire_models.min_weight, tire_models.max_weight)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.category, EXCLUDED.target_weight, EXCLUDED.min_weight, EXCLUDED.max_weight)
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), m.SKU, m.Name, m.Category, m.TargetWeight, m.MinWeight, m.MaxWeight, m.CuringTimeMins, m.CuringTempC)
}

// GetTireModel returns the catalog record for a SKU.
func (s *Store) GetTireModel(ctx context.Context, sku string) (*domain.TireModel, error) {
	const q = `
		SELECT id, sku, name, category, target_weight, min_weight, max_weight, curing_time_mins, curing_temp_c, created_at, updated_at
		FROM tire_models WHERE sku = $1`
	var m domain.TireModel
	err := s.db.QueryRowContext(ctx, q, sku).Scan(
		&m.ID, &m.SKU, &m.Name, &m.Category, &m.TargetWeight, &m.MinWeight, &m.MaxWeight,
		&m.CuringTimeMins, &m.CuringTempC, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get tire model %s: %w", sku, err)
	}
	return &m, nil
}

// UpsertDefectType writes a defect type keyed by code. Occurrence counters
// are maintained separately by RefreshDefectOccurrences.
func (s *Store) UpsertDefectType(ctx context.Context, dt *domain.DefectType) (UpsertOutcome, error) {
	const q = `
		INSERT INTO defect_types (id, code, name, category, severity, typical_grade, root_cause_guide)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			severity = EXCLUDED.severity,
			typical_grade = EXCLUDED.typical_grade,
			root_cause_guide = EXCLUDED.root_cause_guide,
			updated_at = now()
		WHERE (defect_types.name, defect_types.category, defect_types.severity, defect_types.typical_grade, defect_types.root_cause_guide)
			IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.category, EXCLUDED.severity, EXCLUDED.typical_grade, EXCLUDED.root_cause_guide)
		RETURNING (xmax = 0)`
	return s.upsertOutcome(ctx, q,
		uuid.New().String(), dt.Code, dt.Name, dt.Category, dt.Severity, dt.TypicalGrade, dt.RootCauseGuide)
}

// RefreshDefectOccurrences recomputes the derived occurrence counters from
// defect records and tallies. Called after a successful load.
func (s *Store) RefreshDefectOccurrences(ctx context.Context) error {
	const q = `
		UPDATE defect_types dt SET occurrence_count = sub.total, updated_at = now()
		FROM (
			SELECT code,
				COALESCE((SELECT COUNT(*) FROM defect_records dr WHERE dr.defect_type_code = code), 0) +
				COALESCE((SELECT SUM(count) FROM defect_tallies t WHERE t.defect_code = code), 0) AS total
			FROM defect_types
		) sub
		WHERE dt.code = sub.code AND dt.occurrence_count <> sub.total`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to refresh defect occurrence counts: %w", err)
	}
	return nil
}

// EnsureOperator creates the operator on first reference.
func (s *Store) EnsureOperator(ctx context.Context, employeeID string) error {
	const q = `
		INSERT INTO operators (id, employee_id)
		VALUES ($1, $2)
		ON CONFLICT (employee_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, uuid.New().String(), employeeID); err != nil {
		return fmt.Errorf("failed to ensure operator %s: %w", employeeID, err)
	}
	return nil
}

// UpdateOperatorStats writes the derived rolling quality stats.
func (s *Store) UpdateOperatorStats(ctx context.Context, employeeID string, qualityScore, avgBRRate float64) error {
	const q = `
		UPDATE operators SET quality_score = $2, avg_br_rate = $3, updated_at = now()
		WHERE employee_id = $1`
	if _, err := s.db.ExecContext(ctx, q, employeeID, qualityScore, avgBRRate); err != nil {
		return fmt.Errorf("failed to update operator stats: %w", err)
	}
	return nil
}

// upsertOutcome runs an upsert whose RETURNING clause yields (xmax = 0)
// when a row was written, mapping it onto inserted/updated/skipped.
func (s *Store) upsertOutcome(ctx context.Context, query string, args ...any) (UpsertOutcome, error) {
	var inserted bool
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, err
	}
	if inserted {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}
