package domain

import (
	"time"
)

// AlertSeverity represents how urgent an alert is
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// AlertStatus represents the workflow state of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// AlertType classifies what triggered an alert
type AlertType string

const (
	AlertTypeBRRateSpike    AlertType = "br_rate_spike"
	AlertTypeBRRateDrift    AlertType = "br_rate_drift"
	AlertTypeTargetExceeded AlertType = "target_exceeded"
	AlertTypeSyncFailure    AlertType = "sync_failure"
)

// Alert is produced by this core and delivered by an external notification
// collaborator; the core never sends anything itself.
type Alert struct {
	ID            string        `json:"id" db:"id"`
	AlertType     AlertType     `json:"alert_type" db:"alert_type" validate:"required"`
	Severity      AlertSeverity `json:"severity" db:"severity" validate:"required,oneof=info warning critical"`
	Title         string        `json:"title" db:"title" validate:"required"`
	Message       string        `json:"message" db:"message"`
	RelatedEntity string        `json:"related_entity,omitempty" db:"related_entity"`
	Channels      []string      `json:"channels,omitempty" db:"channels"`
	Status        AlertStatus   `json:"status" db:"status" validate:"required,oneof=active acknowledged resolved dismissed"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ContributingFactor is one weighted factor in a root cause analysis
type ContributingFactor struct {
	Factor string  `json:"factor"`
	Weight float64 `json:"weight"`
}

// RootCauseAnalysis is the workflow record for investigating a quality
// incident. Factors and actions are explicit tagged structures rather than
// free-form blobs so consumers get compile-time shape guarantees.
type RootCauseAnalysis struct {
	ID          string               `json:"id" db:"id"`
	AlertID     string               `json:"alert_id,omitempty" db:"alert_id"`
	LineCode    string               `json:"line_code" db:"line_code"`
	Description string               `json:"description" db:"description"`
	Factors     []ContributingFactor `json:"factors,omitempty"`
	Actions     []string             `json:"actions,omitempty"`
	Status      string               `json:"status" db:"status"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
}
