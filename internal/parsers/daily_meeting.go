package parsers

import (
	"log/slog"
	"strings"
	"time"
)

// DailyMeetingRecord is the best-effort extract from one production line's
// sheet in the daily meeting workbook. The layout is irregular, so only the
// fields the parser could positively identify are populated.
type DailyMeetingRecord struct {
	LineCode string    `json:"line_code"`
	Date     time.Time `json:"date"`
	BRRate   *float64  `json:"br_rate,omitempty"`
	Produced *int      `json:"produced,omitempty"`
	Notes    []string  `json:"notes,omitempty"`
}

// DailyMeetingParser parses the daily meeting workbook: one sheet per
// production line, no fixed schema. It scans each sheet for marker tokens
// (a "Date" label, a "B+R" label) and extracts whatever it can. Sheets it
// cannot make sense of are skipped with a warning; the parser never fails
// on an unrecognized layout.
type DailyMeetingParser struct {
	logger *slog.Logger
}

// NewDailyMeetingParser creates a daily meeting parser.
func NewDailyMeetingParser(logger *slog.Logger) *DailyMeetingParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyMeetingParser{logger: logger}
}

// dateLayouts are the date formats seen next to the "Date" marker across
// different authors of the meeting workbook.
var dateLayouts = []string{"2006-01-02", "2006.01.02", "01/02/2006", "2006/01/02", "1/2/2006"}

// Parse walks every sheet, treating the sheet name as the line code.
func (p *DailyMeetingParser) Parse(data []byte) ([]DailyMeetingRecord, []Warning, error) {
	f, err := openWorkbook(data)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var out []DailyMeetingRecord
	var warnings []Warning

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, Warning{Sheet: sheet, Row: 0, Message: "unreadable sheet, skipped"})
			continue
		}

		rec, ok := p.scanSheet(sheet, rows)
		if !ok {
			warnings = append(warnings, Warning{Sheet: sheet, Row: 0, Message: "no date marker found, sheet skipped"})
			p.logger.Warn("daily meeting sheet skipped",
				slog.String("sheet", sheet),
				slog.Int("rows", len(rows)))
			continue
		}
		out = append(out, rec)
	}

	p.logger.Debug("parsed daily meeting workbook",
		slog.Int("sheets", len(out)),
		slog.Int("warnings", len(warnings)))

	return out, warnings, nil
}

// scanSheet hunts for marker tokens. A sheet counts as parsed only if a
// date was found; everything else is optional.
func (p *DailyMeetingParser) scanSheet(sheet string, rows [][]string) (DailyMeetingRecord, bool) {
	rec := DailyMeetingRecord{LineCode: strings.TrimSpace(sheet)}
	found := false

	for _, row := range rows {
		for j, c := range row {
			label := strings.ToLower(strings.TrimSpace(c))
			switch {
			case !found && (label == "date" || label == "일자" || label == "날짜"):
				if d, ok := parseDateCell(cell(row, j+1)); ok {
					rec.Date = d
					found = true
				}
			case rec.BRRate == nil && (strings.Contains(label, "b+r") || strings.Contains(label, "b/r")):
				if v, ok := parseFloatCell(strings.TrimSuffix(cell(row, j+1), "%")); ok {
					rec.BRRate = &v
				}
			case rec.Produced == nil && (strings.Contains(label, "production") || strings.Contains(label, "생산량")):
				if v, ok := parseIntCell(cell(row, j+1)); ok {
					rec.Produced = &v
				}
			case label == "note" || label == "notes" || label == "특이사항":
				if note := cell(row, j+1); note != "" {
					rec.Notes = append(rec.Notes, note)
				}
			}
		}
	}

	return rec, found
}

func parseDateCell(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
