package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"tirepulse/pkg/contracts/domain"
)

// InsertAlert persists a produced alert. Delivery is an external
// collaborator's job; this core only records what should be sent.
func (s *Store) InsertAlert(ctx context.Context, a *domain.Alert) error {
	const q = `
		INSERT INTO alerts (id, alert_type, severity, title, message, related_entity, channels, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, q,
		a.ID, a.AlertType, a.Severity, a.Title, a.Message, a.RelatedEntity, pq.Array(a.Channels), a.Status)
	if err != nil {
		return fmt.Errorf("failed to insert alert %q: %w", a.Title, err)
	}
	return nil
}

// ListAlerts returns alerts filtered by status; empty status returns all.
func (s *Store) ListAlerts(ctx context.Context, status domain.AlertStatus, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
		SELECT id, alert_type, severity, title, message, related_entity, channels, status, created_at, updated_at
		FROM alerts
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, q, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.AlertType, &a.Severity, &a.Title, &a.Message,
			&a.RelatedEntity, pq.Array(&a.Channels), &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// HasActiveAlert reports whether an active alert of the given type already
// exists for the entity, so repeated detections do not stack duplicates.
func (s *Store) HasActiveAlert(ctx context.Context, alertType domain.AlertType, relatedEntity string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE alert_type = $1 AND related_entity = $2 AND status = 'active'
		)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, alertType, relatedEntity).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active alerts: %w", err)
	}
	return exists, nil
}

// UpdateAlertStatus moves an alert through its workflow.
func (s *Store) UpdateAlertStatus(ctx context.Context, id string, status domain.AlertStatus) error {
	const q = `UPDATE alerts SET status = $2, updated_at = now() WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}
