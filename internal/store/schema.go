package store

import (
	"context"
	"fmt"
)

// schemaStatements are applied in order by EnsureSchema. Natural-key unique
// constraints back the loader's idempotent upserts; the partial index on
// down_time_events enforces the one-ongoing-event-per-line invariant at the
// storage layer.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS production_lines (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		target_br_rate DOUBLE PRECISION NOT NULL DEFAULT 3.0,
		capacity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tire_models (
		id UUID PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'radial',
		target_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		min_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		curing_time_mins INTEGER NOT NULL DEFAULT 0,
		curing_temp_c DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT tire_models_weight_order CHECK (min_weight <= target_weight AND target_weight <= max_weight OR target_weight = 0)
	)`,
	`CREATE TABLE IF NOT EXISTS defect_types (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		severity TEXT NOT NULL DEFAULT 'major',
		typical_grade TEXT NOT NULL DEFAULT 'R',
		root_cause_guide TEXT NOT NULL DEFAULT '',
		occurrence_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id UUID PRIMARY KEY,
		employee_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		line_code TEXT NOT NULL DEFAULT '',
		shift TEXT NOT NULL DEFAULT '',
		quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_br_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS production_batches (
		id UUID PRIMARY KEY,
		batch_number TEXT NOT NULL UNIQUE,
		tire_model_sku TEXT NOT NULL REFERENCES tire_models(sku),
		line_code TEXT NOT NULL REFERENCES production_lines(code),
		shift TEXT NOT NULL DEFAULT '',
		target_quantity INTEGER NOT NULL DEFAULT 0,
		actual_quantity INTEGER NOT NULL DEFAULT 0,
		grade_a INTEGER NOT NULL DEFAULT 0,
		grade_b INTEGER NOT NULL DEFAULT 0,
		grade_r INTEGER NOT NULL DEFAULT 0,
		br_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		yield_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'in_progress',
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT batches_grades_within_quantity CHECK (grade_a + grade_b + grade_r <= actual_quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS quality_inspections (
		id UUID PRIMARY KEY,
		serial_number TEXT NOT NULL UNIQUE,
		tire_model_sku TEXT NOT NULL REFERENCES tire_models(sku),
		batch_number TEXT NOT NULL DEFAULT '',
		line_code TEXT NOT NULL REFERENCES production_lines(code),
		inspector_id TEXT NOT NULL DEFAULT '',
		shift TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL CHECK (grade IN ('A','B','R')),
		actual_weight DOUBLE PRECISION,
		disposition TEXT NOT NULL DEFAULT '',
		inspected_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inspections_line_date ON quality_inspections (line_code, inspected_at)`,
	`CREATE TABLE IF NOT EXISTS defect_records (
		id UUID PRIMARY KEY,
		inspection_id UUID NOT NULL REFERENCES quality_inspections(id),
		defect_type_code TEXT NOT NULL REFERENCES defect_types(code),
		location TEXT NOT NULL DEFAULT '',
		rework_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		scrap_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (inspection_id, defect_type_code)
	)`,
	`CREATE TABLE IF NOT EXISTS down_time_events (
		id UUID PRIMARY KEY,
		line_code TEXT NOT NULL REFERENCES production_lines(code),
		category TEXT NOT NULL DEFAULT 'other',
		reason TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		minutes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'resolved',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (line_code, start_time, category)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_downtime_one_ongoing_per_line ON down_time_events (line_code) WHERE status = 'ongoing'`,
	`CREATE TABLE IF NOT EXISTS defect_tallies (
		id UUID PRIMARY KEY,
		period DATE NOT NULL,
		defect_code TEXT NOT NULL REFERENCES defect_types(code),
		tire_size TEXT NOT NULL,
		count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (period, defect_code, tire_size)
	)`,
	`CREATE TABLE IF NOT EXISTS meeting_summaries (
		id UUID PRIMARY KEY,
		date DATE NOT NULL,
		line_code TEXT NOT NULL,
		reported_br_rate DOUBLE PRECISION,
		reported_output INTEGER,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (date, line_code)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_quality_metrics (
		id UUID PRIMARY KEY,
		date DATE NOT NULL,
		line_code TEXT NOT NULL,
		shift TEXT NOT NULL DEFAULT '',
		total_produced INTEGER NOT NULL DEFAULT 0,
		grade_a INTEGER NOT NULL DEFAULT 0,
		grade_b INTEGER NOT NULL DEFAULT 0,
		grade_r INTEGER NOT NULL DEFAULT 0,
		br_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		yield_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		defect_count INTEGER NOT NULL DEFAULT 0,
		defect_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		inspection_count INTEGER NOT NULL DEFAULT 0,
		down_time_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (date, line_code, shift)
	)`,
	`CREATE TABLE IF NOT EXISTS data_sync_jobs (
		id UUID PRIMARY KEY,
		source_file TEXT NOT NULL,
		file_type TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		status TEXT NOT NULL,
		records_processed INTEGER NOT NULL DEFAULT 0,
		records_inserted INTEGER NOT NULL DEFAULT 0,
		records_updated INTEGER NOT NULL DEFAULT 0,
		records_skipped INTEGER NOT NULL DEFAULT 0,
		records_failed INTEGER NOT NULL DEFAULT 0,
		errors TEXT[] NOT NULL DEFAULT '{}',
		warnings TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_jobs_file_time ON data_sync_jobs (source_file, start_time DESC)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		related_entity TEXT NOT NULL DEFAULT '',
		channels TEXT[] NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	s.logger.Info("database schema ensured", "statements", len(schemaStatements))
	return nil
}
