package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		name string
		want FileType
	}{
		{"L2_weekly_production_2026-08-24.xlsx", FileWeeklyProduction},
		{"Weekly Report L1.xls", FileWeeklyProduction},
		{"defect_matrix_2026_08.xlsx", FileDefectMatrix},
		{"L3 Defect Summary.xlsx", FileDefectMatrix},
		{"downtime_L1_20260825.xlsx", FileDownTime},
		{"down-time log.xlsx", FileDownTime},
		{"daily_meeting_2026-08-24.xlsx", FileDailyMeeting},
		{"Production Daily.xlsx", FileDailyMeeting},
		{"notes.txt", FileUnknown},
		{"production.csv", FileUnknown},
		{"random.xlsx", FileUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFile(tt.name))
		})
	}
}

func TestLineCodeFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"L2 Weekly Production.xlsx", "L2"},
		{"weekly_L10_production.xlsx", "L10"},
		{"downtime_l3_20260825.xlsx", "L3"},
		{"defect_matrix_2026_08.xlsx", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lineCodeFromName(tt.name))
		})
	}
}

func TestDateFromName(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t,
		time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		dateFromName("daily_meeting_2026-08-24.xlsx", fallback))
	assert.Equal(t,
		time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		dateFromName("downtime_L1_20260825.xlsx", fallback))
	assert.Equal(t, fallback, dateFromName("no date here.xlsx", fallback))
	assert.Equal(t, fallback, dateFromName("bogus 2026-13-45.xlsx", fallback), "invalid dates fall back")
}

func TestWeekStartOf(t *testing.T) {
	// 2026-08-27 is a Thursday; the week starts Monday the 24th.
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, weekStartOf(time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, monday, weekStartOf(monday), "a Monday maps to itself")
	assert.Equal(t, monday, weekStartOf(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)), "Sunday closes the week")
}

func TestMonthStartOf(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		monthStartOf(time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)))
}
