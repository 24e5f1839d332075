package parsers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// sheetBytes builds a single-sheet workbook from row data.
func sheetBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", start, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestWeeklyProductionParser(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"L2 Weekly Production"},
		{"Size", "A", "B", "R", "Weight"},
		{"205/55R16", 950, 30, 20, 9.5},
		{"185/60R15", 0, 0, 0, 8.8},
		{"175/70R13", 500, 10, 5, "n/a"},
		{"Total", 1450, 40, 25, ""},
	})

	rows, warnings, err := NewWeeklyProductionParser(nil).Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 2, "zero-total and total rows are dropped")

	assert.Equal(t, WeeklyProductionRow{
		TireSize: "205/55R16", GradeA: 950, GradeB: 30, GradeR: 20, Total: 1000, Weight: 9.5,
	}, rows[0])

	assert.Equal(t, "175/70R13", rows[1].TireSize)
	assert.Equal(t, 0.0, rows[1].Weight, "bad weight falls back to 0")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "bad weight")
}

func TestWeeklyProductionParserKoreanHeaders(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"규격", "A", "B", "R", "중량"},
		{"205/55R16", "1,200", 15, 10, "9.4"},
	})

	rows, warnings, err := NewWeeklyProductionParser(nil).Parse(data)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rows, 1)
	assert.Equal(t, 1200, rows[0].GradeA, "thousands separators are tolerated")
	assert.Equal(t, 9.4, rows[0].Weight)
}

func TestWeeklyProductionParserNoHeader(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"nothing", "useful", "here"},
	})

	rows, warnings, err := NewWeeklyProductionParser(nil).Parse(data)
	require.NoError(t, err, "a layout the parser cannot read is a warning, not an error")
	assert.Empty(t, rows)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "no header row")
}

func TestDefectMatrixParser(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"Monthly Defect Matrix"},
		{""},
		{"Defect", "205/55R16", "185/60R15"},
		{"1. Blister", 5, ""},
		{"2. Bare Spot", 0, 3},
		{"not a defect row", 1, 2},
	})

	rows, warnings, err := NewDefectMatrixParser(nil).Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 2, "zero counts are dropped")

	assert.Equal(t, DefectMatrixRow{DefectIndex: 1, DefectName: "Blister", TireSize: "205/55R16", Count: 5}, rows[0])
	assert.Equal(t, DefectMatrixRow{DefectIndex: 2, DefectName: "Bare Spot", TireSize: "185/60R15", Count: 3}, rows[1])

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "unrecognized defect label")
}

func TestSplitDefectLabel(t *testing.T) {
	tests := []struct {
		label    string
		wantIdx  int
		wantName string
		wantOK   bool
	}{
		{"3. Blister", 3, "Blister", true},
		{"12 Bare Spot", 12, "Bare Spot", true},
		{"7) Light Tire", 7, "Light Tire", true},
		{"Blister", 0, "", false},
		{"", 0, "", false},
		{"9.", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			idx, name, ok := splitDefectLabel(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantIdx, idx)
				assert.Equal(t, tt.wantName, name)
			}
		})
	}
}

func TestDownTimeParser(t *testing.T) {
	data := sheetBytes(t, [][]interface{}{
		{"L2 Down Time"},
		{"Time", "Equipment Failure", "Mold Change"},
		{"7:00~9:00", 30, ""},
		{"9:00-10:00", "", 15},
		{"lunch break", 10, ""},
	})

	rows, warnings, err := NewDownTimeParser(nil).Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, DownTimeRow{StartClock: "7:00", EndClock: "9:00", CategoryLabel: "Equipment Failure", Minutes: 30}, rows[0])
	assert.Equal(t, DownTimeRow{StartClock: "9:00", EndClock: "10:00", CategoryLabel: "Mold Change", Minutes: 15}, rows[1])

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "unrecognized time range")
}

func TestSplitTimeRange(t *testing.T) {
	tests := []struct {
		in        string
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{"7:00~9:00", "7:00", "9:00", true},
		{"07:30 - 08:15", "07:30", "08:15", true},
		{"lunch", "", "", false},
		{"7:00", "", "", false},
		{"7~9", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, ok := splitTimeRange(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestDailyMeetingParser(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "L1"))
	_, err := f.NewSheet("Summary")
	require.NoError(t, err)

	l1Rows := [][]interface{}{
		{"Daily Production Meeting"},
		{"Date", "2026-08-24"},
		{"B+R Rate", "5.2%"},
		{"Production", "1,450"},
		{"Notes", "mold change on PM shift"},
	}
	for i, row := range l1Rows {
		start, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("L1", start, &row))
	}
	require.NoError(t, f.SetSheetRow("Summary", "A1", &[]interface{}{"weekly recap, no date marker"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	records, warnings, err := NewDailyMeetingParser(nil).Parse(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 1, "sheets without a date marker are skipped")
	require.Len(t, warnings, 1)

	rec := records[0]
	assert.Equal(t, "L1", rec.LineCode)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), rec.Date)
	require.NotNil(t, rec.BRRate)
	assert.Equal(t, 5.2, *rec.BRRate)
	require.NotNil(t, rec.Produced)
	assert.Equal(t, 1450, *rec.Produced)
	assert.Equal(t, []string{"mold change on PM shift"}, rec.Notes)
}

func TestParseIntCell(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{"1,450", 1450, true},
		{"12.0", 12, true},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, ok := parseIntCell(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenWorkbookRejectsGarbage(t *testing.T) {
	_, _, err := NewWeeklyProductionParser(nil).Parse([]byte("not an xlsx file"))
	require.Error(t, err)
}
