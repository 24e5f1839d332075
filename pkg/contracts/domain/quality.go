package domain

import (
	"time"
)

// Grade represents the quality grade assigned to an inspected tire
type Grade string

const (
	GradeA Grade = "A" // first quality
	GradeB Grade = "B" // minor defect, sellable as second
	GradeR Grade = "R" // reject
)

// DefectSeverity represents how severe a defect type is considered
type DefectSeverity string

const (
	SeverityMinor    DefectSeverity = "minor"
	SeverityMajor    DefectSeverity = "major"
	SeverityCritical DefectSeverity = "critical"
)

// DefectType represents a catalogued defect classification.
// OccurrenceCount is derived from defect records and never hand-edited.
type DefectType struct {
	ID               string         `json:"id" db:"id"`
	Code             string         `json:"code" db:"code" validate:"required"`
	Name             string         `json:"name" db:"name" validate:"required"`
	Category         string         `json:"category" db:"category"`
	Severity         DefectSeverity `json:"severity" db:"severity" validate:"oneof=minor major critical"`
	TypicalGrade     Grade          `json:"typical_grade" db:"typical_grade" validate:"oneof=B R"`
	RootCauseGuide   string         `json:"root_cause_guide,omitempty" db:"root_cause_guide"`
	OccurrenceCount  int            `json:"occurrence_count" db:"occurrence_count"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// QualityInspection represents the inspection outcome for a single tire.
// Immutable once created except for disposition updates.
type QualityInspection struct {
	ID           string     `json:"id" db:"id"`
	SerialNumber string     `json:"serial_number" db:"serial_number" validate:"required"`
	TireModelSKU string     `json:"tire_model_sku" db:"tire_model_sku" validate:"required"`
	BatchNumber  string     `json:"batch_number" db:"batch_number"`
	LineCode     string     `json:"line_code" db:"line_code" validate:"required"`
	InspectorID  string     `json:"inspector_id" db:"inspector_id"`
	Shift        string     `json:"shift" db:"shift"`
	Grade        Grade      `json:"grade" db:"grade" validate:"required,oneof=A B R"`
	ActualWeight *float64   `json:"actual_weight,omitempty" db:"actual_weight"`
	Disposition  string     `json:"disposition,omitempty" db:"disposition"`
	InspectedAt  time.Time  `json:"inspected_at" db:"inspected_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// DefectRecord represents one defect observed during an inspection.
// Only inspections graded B or R may carry defect records.
type DefectRecord struct {
	ID             string    `json:"id" db:"id"`
	InspectionID   string    `json:"inspection_id" db:"inspection_id" validate:"required"`
	DefectTypeCode string    `json:"defect_type_code" db:"defect_type_code" validate:"required"`
	Location       string    `json:"location,omitempty" db:"location"`
	ReworkCost     float64   `json:"rework_cost" db:"rework_cost" validate:"min=0"`
	ScrapCost      float64   `json:"scrap_cost" db:"scrap_cost" validate:"min=0"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Operator represents a line operator or inspector.
// QualityScore and AvgBRRate are rolling derived values recomputed from
// recent inspections.
type Operator struct {
	ID           string    `json:"id" db:"id"`
	EmployeeID   string    `json:"employee_id" db:"employee_id" validate:"required"`
	Name         string    `json:"name" db:"name"`
	LineCode     string    `json:"line_code" db:"line_code"`
	Shift        string    `json:"shift" db:"shift"`
	QualityScore float64   `json:"quality_score" db:"quality_score"`
	AvgBRRate    float64   `json:"avg_br_rate" db:"avg_br_rate"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
