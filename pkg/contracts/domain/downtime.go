package domain

import (
	"time"
)

// DownTimeStatus represents whether a down-time event is still open
type DownTimeStatus string

const (
	DownTimeOngoing  DownTimeStatus = "ongoing"
	DownTimeResolved DownTimeStatus = "resolved"
)

// DownTimeCategory is the canonical category for a down-time event.
// Source spreadsheets carry bilingual, loosely formatted labels; the
// transform layer maps them onto these values with CategoryOther as the
// fallback for anything unrecognized.
type DownTimeCategory string

const (
	CategoryEquipmentFailure DownTimeCategory = "equipment_failure"
	CategoryMoldChange       DownTimeCategory = "mold_change"
	CategoryMaterialShortage DownTimeCategory = "material_shortage"
	CategoryPowerOutage      DownTimeCategory = "power_outage"
	CategoryPlannedMaint     DownTimeCategory = "planned_maintenance"
	CategoryQualityHold      DownTimeCategory = "quality_hold"
	CategoryBreakTime        DownTimeCategory = "break_time"
	CategoryOther            DownTimeCategory = "other"
)

// DownTimeEvent represents a period during which a line was not producing.
// At most one ongoing event may exist per line at a time; StartTime must
// not be after EndTime once the event is resolved.
type DownTimeEvent struct {
	ID          string           `json:"id" db:"id"`
	LineCode    string           `json:"line_code" db:"line_code" validate:"required"`
	Category    DownTimeCategory `json:"category" db:"category" validate:"required"`
	Reason      string           `json:"reason,omitempty" db:"reason"`
	StartTime   time.Time        `json:"start_time" db:"start_time"`
	EndTime     *time.Time       `json:"end_time,omitempty" db:"end_time"`
	Minutes     int              `json:"minutes" db:"minutes" validate:"min=0"`
	Status      DownTimeStatus   `json:"status" db:"status" validate:"required,oneof=ongoing resolved"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}
