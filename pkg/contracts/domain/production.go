package domain

import (
	"time"
)

// LineStatus represents the operational status of a production line
type LineStatus string

const (
	LineStatusActive      LineStatus = "active"
	LineStatusDown        LineStatus = "down"
	LineStatusMaintenance LineStatus = "maintenance"
)

// ProductionLine represents a curing/building line in the plant.
// Lines are mutated by operator and maintenance events but never deleted.
type ProductionLine struct {
	ID           string     `json:"id" db:"id"`
	Code         string     `json:"code" db:"code" validate:"required"`
	Name         string     `json:"name" db:"name" validate:"required"`
	TargetBRRate float64    `json:"target_br_rate" db:"target_br_rate" validate:"min=0,max=100"`
	Capacity     int        `json:"capacity" db:"capacity" validate:"min=0"`
	Status       LineStatus `json:"status" db:"status" validate:"required,oneof=active down maintenance"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TireCategory represents the construction category of a tire model
type TireCategory string

const (
	TireCategoryRadial     TireCategory = "radial"
	TireCategoryMotorcycle TireCategory = "motorcycle"
	TireCategoryBias       TireCategory = "bias"
)

// TireModel represents a tire SKU in the plant catalog
type TireModel struct {
	ID              string       `json:"id" db:"id"`
	SKU             string       `json:"sku" db:"sku" validate:"required"`
	Name            string       `json:"name" db:"name"`
	Category        TireCategory `json:"category" db:"category" validate:"required,oneof=radial motorcycle bias"`
	TargetWeight    float64      `json:"target_weight" db:"target_weight" validate:"min=0"`
	MinWeight       float64      `json:"min_weight" db:"min_weight" validate:"min=0,ltefield=TargetWeight"`
	MaxWeight       float64      `json:"max_weight" db:"max_weight" validate:"gtefield=TargetWeight"`
	CuringTimeMins  int          `json:"curing_time_mins" db:"curing_time_mins"`
	CuringTempC     float64      `json:"curing_temp_c" db:"curing_temp_c"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// BatchStatus represents the lifecycle status of a production batch
type BatchStatus string

const (
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
)

// ProductionBatch represents one production run of a tire model on a line.
// Grade counts must never exceed the actual quantity, and the stored rates
// must always agree with the counts they are derived from.
type ProductionBatch struct {
	ID             string      `json:"id" db:"id"`
	BatchNumber    string      `json:"batch_number" db:"batch_number" validate:"required"`
	TireModelSKU   string      `json:"tire_model_sku" db:"tire_model_sku" validate:"required"`
	LineCode       string      `json:"line_code" db:"line_code" validate:"required"`
	Shift          string      `json:"shift" db:"shift"`
	TargetQuantity int         `json:"target_quantity" db:"target_quantity" validate:"min=0"`
	ActualQuantity int         `json:"actual_quantity" db:"actual_quantity" validate:"min=0"`
	GradeA         int         `json:"grade_a" db:"grade_a" validate:"min=0"`
	GradeB         int         `json:"grade_b" db:"grade_b" validate:"min=0"`
	GradeR         int         `json:"grade_r" db:"grade_r" validate:"min=0"`
	BRRate         float64     `json:"br_rate" db:"br_rate"`
	YieldRate      float64     `json:"yield_rate" db:"yield_rate"`
	Status         BatchStatus `json:"status" db:"status" validate:"required,oneof=in_progress completed"`
	StartTime      time.Time   `json:"start_time" db:"start_time"`
	EndTime        *time.Time  `json:"end_time,omitempty" db:"end_time"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// GradedTotal returns the number of units that have been graded so far
func (b *ProductionBatch) GradedTotal() int {
	return b.GradeA + b.GradeB + b.GradeR
}
