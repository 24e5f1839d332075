package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"tirepulse/pkg/contracts/domain"
)

// InsertSyncJob appends one sync attempt to the audit log. The table is
// append-only: one row per attempt, never updated.
func (s *Store) InsertSyncJob(ctx context.Context, j *domain.DataSyncJob) error {
	const q = `
		INSERT INTO data_sync_jobs
			(id, source_file, file_type, start_time, end_time, status,
			 records_processed, records_inserted, records_updated, records_skipped, records_failed,
			 errors, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.ExecContext(ctx, q,
		j.ID, j.SourceFile, j.FileType, j.StartTime, j.EndTime, j.Status,
		j.RecordsProcessed, j.RecordsInserted, j.RecordsUpdated, j.RecordsSkipped, j.RecordsFailed,
		pq.Array(j.Errors), pq.Array(j.Warnings))
	if err != nil {
		return fmt.Errorf("failed to insert sync job for %s: %w", j.SourceFile, err)
	}
	return nil
}

// ListSyncJobs returns the most recent sync attempts, newest first.
func (s *Store) ListSyncJobs(ctx context.Context, limit int) ([]domain.DataSyncJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, source_file, file_type, start_time, end_time, status,
			   records_processed, records_inserted, records_updated, records_skipped, records_failed,
			   errors, warnings, created_at
		FROM data_sync_jobs
		ORDER BY start_time DESC
		LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.DataSyncJob
	for rows.Next() {
		var j domain.DataSyncJob
		if err := rows.Scan(&j.ID, &j.SourceFile, &j.FileType, &j.StartTime, &j.EndTime, &j.Status,
			&j.RecordsProcessed, &j.RecordsInserted, &j.RecordsUpdated, &j.RecordsSkipped, &j.RecordsFailed,
			pq.Array(&j.Errors), pq.Array(&j.Warnings), &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// LastSuccessfulSync returns when the file last synced successfully, for
// incremental change detection. Never synced reports the zero time.
func (s *Store) LastSuccessfulSync(ctx context.Context, sourceFile string) (time.Time, error) {
	const q = `
		SELECT start_time FROM data_sync_jobs
		WHERE source_file = $1 AND status = 'success'
		ORDER BY start_time DESC LIMIT 1`
	var t time.Time
	err := s.db.QueryRowContext(ctx, q, sourceFile).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to find last sync for %s: %w", sourceFile, err)
	}
	return t, nil
}
