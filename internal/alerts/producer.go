// Package alerts turns detected anomalies and target breaches into alert
// records. Delivery is out of scope: the producer only persists what an
// external notification collaborator should send, with deduplication so
// repeated detections do not stack duplicates.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tirepulse/internal/anomaly"
	"tirepulse/internal/store"
	"tirepulse/pkg/contracts/domain"
)

// defaultChannels is where the external collaborator is asked to deliver.
var defaultChannels = []string{"dashboard", "email"}

// Producer converts detections into persisted alerts.
type Producer struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProducer creates an alert producer over the store.
func NewProducer(st *store.Store, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{store: st, logger: logger}
}

// FromAnomalies records one alert per anomaly, skipping any with an active
// alert of the same type for the same line. Returns how many were created.
func (p *Producer) FromAnomalies(ctx context.Context, anomalies []anomaly.Anomaly) (int, error) {
	created := 0
	for _, a := range anomalies {
		alertType := domain.AlertTypeBRRateSpike
		if a.Kind == anomaly.KindDrift {
			alertType = domain.AlertTypeBRRateDrift
		}
		entity := relatedEntity(a.Metric, a.LineCode)

		exists, err := p.store.HasActiveAlert(ctx, alertType, entity)
		if err != nil {
			return created, err
		}
		if exists {
			p.logger.Debug("active alert already exists, skipping",
				slog.String("type", string(alertType)),
				slog.String("entity", entity))
			continue
		}

		alert := &domain.Alert{
			ID:            uuid.New().String(),
			AlertType:     alertType,
			Severity:      severityFor(a.Severity),
			Title:         fmt.Sprintf("%s %s on %s", a.Metric, a.Kind, displayLine(a.LineCode)),
			Message:       a.Description,
			RelatedEntity: entity,
			Channels:      defaultChannels,
			Status:        domain.AlertStatusActive,
		}
		if err := p.store.InsertAlert(ctx, alert); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// TargetBreaches records an alert for every line whose latest daily B+R
// rate exceeds its configured target. Deduplicated per line and day.
func (p *Producer) TargetBreaches(ctx context.Context, day time.Time) (int, error) {
	lines, err := p.store.ListLines(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, line := range lines {
		if line.TargetBRRate <= 0 {
			continue
		}
		dayMetrics, err := p.store.ListDailyMetrics(ctx, line.Code, day, day)
		if err != nil {
			return created, err
		}
		for _, m := range dayMetrics {
			if m.BRRate <= line.TargetBRRate {
				continue
			}
			entity := fmt.Sprintf("line:%s:%s", line.Code, day.Format("2006-01-02"))
			exists, err := p.store.HasActiveAlert(ctx, domain.AlertTypeTargetExceeded, entity)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			alert := &domain.Alert{
				ID:        uuid.New().String(),
				AlertType: domain.AlertTypeTargetExceeded,
				Severity:  domain.AlertSeverityWarning,
				Title:     fmt.Sprintf("B+R rate above target on %s", line.Code),
				Message: fmt.Sprintf("line %s recorded a B+R rate of %.2f%% against a target of %.2f%% on %s",
					line.Code, m.BRRate, line.TargetBRRate, day.Format("2006-01-02")),
				RelatedEntity: entity,
				Channels:      defaultChannels,
				Status:        domain.AlertStatusActive,
			}
			if err := p.store.InsertAlert(ctx, alert); err != nil {
				return created, err
			}
			created++
			break
		}
	}
	if created > 0 {
		p.logger.Info("target breach alerts created", slog.Int("count", created))
	}
	return created, nil
}

// SyncFailure records an alert for a failed sync run. One active alert per
// file name at a time.
func (p *Producer) SyncFailure(ctx context.Context, fileName string, errs []string) error {
	entity := "file:" + fileName
	exists, err := p.store.HasActiveAlert(ctx, domain.AlertTypeSyncFailure, entity)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	msg := "sync failed"
	if len(errs) > 0 {
		msg = errs[0]
	}
	alert := &domain.Alert{
		ID:            uuid.New().String(),
		AlertType:     domain.AlertTypeSyncFailure,
		Severity:      domain.AlertSeverityCritical,
		Title:         fmt.Sprintf("sync failed for %s", fileName),
		Message:       msg,
		RelatedEntity: entity,
		Channels:      defaultChannels,
		Status:        domain.AlertStatusActive,
	}
	return p.store.InsertAlert(ctx, alert)
}

func severityFor(s anomaly.Severity) domain.AlertSeverity {
	if s == anomaly.SeverityHigh {
		return domain.AlertSeverityCritical
	}
	return domain.AlertSeverityWarning
}

func relatedEntity(metric, lineCode string) string {
	if lineCode == "" {
		return "metric:" + metric
	}
	return fmt.Sprintf("metric:%s:line:%s", metric, lineCode)
}

func displayLine(lineCode string) string {
	if lineCode == "" {
		return "all lines"
	}
	return "line " + lineCode
}
