package domain

import (
	"time"
)

// DefectTally is the aggregated count of one defect type for one tire size
// over one reporting period, as reported by the defect matrix sheet. Keyed
// by (period, defect code, tire size) so re-loading the same sheet is a
// no-op.
type DefectTally struct {
	ID         string    `json:"id" db:"id"`
	Period     time.Time `json:"period" db:"period"`
	DefectCode string    `json:"defect_code" db:"defect_code" validate:"required"`
	TireSize   string    `json:"tire_size" db:"tire_size" validate:"required"`
	Count      int       `json:"count" db:"count" validate:"min=1"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// MeetingSummary is the best-effort extract of one line's daily meeting
// sheet. Sparse by design: the source layout is irregular and the parser
// only keeps what it could positively identify.
type MeetingSummary struct {
	ID             string    `json:"id" db:"id"`
	Date           time.Time `json:"date" db:"date"`
	LineCode       string    `json:"line_code" db:"line_code" validate:"required"`
	ReportedBRRate *float64  `json:"reported_br_rate,omitempty" db:"reported_br_rate"`
	ReportedOutput *int      `json:"reported_output,omitempty" db:"reported_output"`
	Notes          []string  `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
