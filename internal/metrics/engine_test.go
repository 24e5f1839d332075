package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tirepulse/internal/store"
)

func dayKey() store.DayKey {
	return store.DayKey{
		Date:     time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		LineCode: "L1",
		Shift:    "day",
	}
}

func TestBuildMetricBatchPrecedence(t *testing.T) {
	insp := &store.InspectionAggregate{Inspections: 200, Defects: 12, GradeA: 190, GradeB: 6, GradeR: 4}
	batch := &store.BatchAggregate{Produced: 1000, GradeA: 950, GradeB: 30, GradeR: 20}

	m := buildMetric(dayKey(), insp, batch, 45)

	assert.Equal(t, 1000, m.TotalProduced, "batch sums win over inspection counts")
	assert.Equal(t, 950, m.GradeA)
	assert.Equal(t, 5.00, m.BRRate)
	assert.Equal(t, 95.00, m.YieldRate)
	assert.Equal(t, 200, m.InspectionCount, "inspection facts still drive the defect rate")
	assert.Equal(t, 6.00, m.DefectRate)
	assert.Equal(t, 45, m.DownTimeMinutes)
}

func TestBuildMetricInspectionFallback(t *testing.T) {
	insp := &store.InspectionAggregate{Inspections: 100, Defects: 3, GradeA: 96, GradeB: 3, GradeR: 1}
	batch := &store.BatchAggregate{}

	m := buildMetric(dayKey(), insp, batch, 0)

	assert.Equal(t, 100, m.TotalProduced)
	assert.Equal(t, 96, m.GradeA)
	assert.Equal(t, 4.00, m.BRRate)
	assert.Equal(t, 3.00, m.DefectRate)
}

func TestBuildMetricEmptyKey(t *testing.T) {
	m := buildMetric(dayKey(), &store.InspectionAggregate{}, &store.BatchAggregate{}, 0)

	assert.Zero(t, m.TotalProduced)
	assert.Zero(t, m.BRRate)
	assert.Zero(t, m.YieldRate)
	assert.Zero(t, m.DefectRate)
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name string
		st   store.OperatorWindowStats
		want float64
	}{
		{
			name: "clean month",
			st:   store.OperatorWindowStats{Inspections: 200, GradeA: 196, GradeR: 1},
			want: 97.00,
		},
		{
			name: "rejections subtract a point each",
			st:   store.OperatorWindowStats{Inspections: 100, GradeA: 90, GradeR: 10},
			want: 80.00,
		},
		{
			name: "floor at zero",
			st:   store.OperatorWindowStats{Inspections: 100, GradeA: 10, GradeR: 95},
			want: 0,
		},
		{
			name: "no inspections",
			st:   store.OperatorWindowStats{},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualityScore(tt.st))
		})
	}
}
