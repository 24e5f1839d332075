package parsers

import (
	"fmt"
	"log/slog"
	"strings"
)

// DownTimeRow is one (time range, category) down-time cell.
type DownTimeRow struct {
	StartClock    string `json:"start_clock"` // "7:00"
	EndClock      string `json:"end_clock"`   // "9:00"
	CategoryLabel string `json:"category_label"`
	Minutes       int    `json:"minutes"`
}

// downTimeCategoryHeaderRow is the index of the second header row, which
// carries the down-time category labels. Row 0 is the sheet title / line
// banner.
const downTimeCategoryHeaderRow = 1

// DownTimeParser parses the daily down-time log: rows are time ranges like
// "7:00~9:00", columns are down-time categories, cells are minutes.
type DownTimeParser struct {
	logger *slog.Logger
}

// NewDownTimeParser creates a down-time parser.
func NewDownTimeParser(logger *slog.Logger) *DownTimeParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownTimeParser{logger: logger}
}

// Parse reads the first sheet. Zero-duration cells are dropped; rows whose
// first column is not a recognizable time range are skipped with a warning.
func (p *DownTimeParser) Parse(data []byte) ([]DownTimeRow, []Warning, error) {
	f, err := openWorkbook(data)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var warnings []Warning
	if len(rows) <= downTimeCategoryHeaderRow {
		warnings = append(warnings, Warning{Sheet: sheet, Row: 0, Message: "sheet has no category header row"})
		return nil, warnings, nil
	}

	header := rows[downTimeCategoryHeaderRow]
	categories := make(map[int]string)
	for j := 1; j < len(header); j++ {
		if label := cell(header, j); label != "" {
			categories[j] = label
		}
	}
	if len(categories) == 0 {
		warnings = append(warnings, Warning{Sheet: sheet, Row: downTimeCategoryHeaderRow + 1, Message: "no down-time category columns"})
		return nil, warnings, nil
	}

	var out []DownTimeRow
	for i := downTimeCategoryHeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}

		start, end, ok := splitTimeRange(cell(row, 0))
		if !ok {
			warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("unrecognized time range %q", cell(row, 0))})
			continue
		}

		for j, label := range categories {
			raw := cell(row, j)
			if raw == "" {
				continue
			}
			minutes, ok := parseIntCell(raw)
			if !ok {
				warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("bad duration %q in category %q", raw, label)})
				continue
			}
			if minutes <= 0 {
				continue
			}
			out = append(out, DownTimeRow{
				StartClock:    start,
				EndClock:      end,
				CategoryLabel: label,
				Minutes:       minutes,
			})
		}
	}

	p.logger.Debug("parsed down-time log",
		slog.String("sheet", sheet),
		slog.Int("rows", len(out)),
		slog.Int("warnings", len(warnings)))

	return out, warnings, nil
}

// splitTimeRange splits "7:00~9:00" (also tolerating "-" as separator) into
// start and end clock strings.
func splitTimeRange(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	sep := "~"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if !looksLikeClock(start) || !looksLikeClock(end) {
		return "", "", false
	}
	return start, end, true
}

func looksLikeClock(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
