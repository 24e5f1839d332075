package domain

import (
	"time"
)

// DailyQualityMetric is the derived per-day/per-line/per-shift aggregate.
// It is recomputed whenever the underlying inspections or batches for its
// (date, line, shift) key change; it is never hand-edited.
type DailyQualityMetric struct {
	ID              string    `json:"id" db:"id"`
	Date            time.Time `json:"date" db:"date"`
	LineCode        string    `json:"line_code" db:"line_code" validate:"required"`
	Shift           string    `json:"shift" db:"shift"`
	TotalProduced   int       `json:"total_produced" db:"total_produced"`
	GradeA          int       `json:"grade_a" db:"grade_a"`
	GradeB          int       `json:"grade_b" db:"grade_b"`
	GradeR          int       `json:"grade_r" db:"grade_r"`
	BRRate          float64   `json:"br_rate" db:"br_rate"`
	YieldRate       float64   `json:"yield_rate" db:"yield_rate"`
	DefectCount     int       `json:"defect_count" db:"defect_count"`
	DefectRate      float64   `json:"defect_rate" db:"defect_rate"`
	InspectionCount int       `json:"inspection_count" db:"inspection_count"`
	DownTimeMinutes int       `json:"down_time_minutes" db:"down_time_minutes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// OperatorPerformance is the read-surface view of an operator's rolling
// quality statistics over a recent window of inspections.
type OperatorPerformance struct {
	EmployeeID      string    `json:"employee_id"`
	Name            string    `json:"name"`
	LineCode        string    `json:"line_code"`
	Shift           string    `json:"shift"`
	InspectionCount int       `json:"inspection_count"`
	GradeA          int       `json:"grade_a"`
	GradeB          int       `json:"grade_b"`
	GradeR          int       `json:"grade_r"`
	AvgBRRate       float64   `json:"avg_br_rate"`
	QualityScore    float64   `json:"quality_score"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
}
