package parsers

import (
	"fmt"
	"log/slog"
	"strings"
)

// WeeklyProductionRow is one tire size's graded production for the week.
type WeeklyProductionRow struct {
	TireSize string  `json:"tire_size"`
	GradeA   int     `json:"grade_a"`
	GradeB   int     `json:"grade_b"`
	GradeR   int     `json:"grade_r"`
	Total    int     `json:"total"`
	Weight   float64 `json:"weight"`
}

// WeeklyProductionParser parses the weekly production summary: one row per
// tire size with A/B/R grade columns and an average weight column.
type WeeklyProductionParser struct {
	logger *slog.Logger
}

// NewWeeklyProductionParser creates a weekly production parser.
func NewWeeklyProductionParser(logger *slog.Logger) *WeeklyProductionParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyProductionParser{logger: logger}
}

// Parse reads the first sheet, locating the grade columns from the header
// row. Rows whose grade total is zero are dropped. A weight cell that fails
// to parse falls back to 0 with a warning, never an error.
func (p *WeeklyProductionParser) Parse(data []byte) ([]WeeklyProductionRow, []Warning, error) {
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

	headerRow, cols := findGradeHeader(rows)
	if headerRow == -1 {
		warnings = append(warnings, Warning{Sheet: sheet, Row: 0, Message: "no header row with A/B/R grade columns"})
		return nil, warnings, nil
	}

	var out []WeeklyProductionRow
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}

		size := cell(row, cols["size"])
		if size == "" || strings.EqualFold(size, "total") || strings.Contains(size, "합계") {
			continue
		}

		a, okA := parseIntCell(cell(row, cols["a"]))
		b, okB := parseIntCell(cell(row, cols["b"]))
		r, okR := parseIntCell(cell(row, cols["r"]))
		if !okA && !okB && !okR {
			warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("no parsable grade counts for size %s", size)})
			continue
		}
		if a < 0 || b < 0 || r < 0 {
			warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("negative grade count for size %s", size)})
			continue
		}

		total := a + b + r
		if total == 0 {
			continue
		}

		weight := 0.0
		if wIdx, ok := cols["weight"]; ok {
			raw := cell(row, wIdx)
			if raw != "" {
				if w, ok := parseFloatCell(raw); ok {
					weight = w
				} else {
					warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("bad weight %q for size %s, using 0", raw, size)})
				}
			}
		}

		out = append(out, WeeklyProductionRow{
			TireSize: size,
			GradeA:   a,
			GradeB:   b,
			GradeR:   r,
			Total:    total,
			Weight:   weight,
		})
	}

	p.logger.Debug("parsed weekly production",
		slog.String("sheet", sheet),
		slog.Int("rows", len(out)),
		slog.Int("warnings", len(warnings)))

	return out, warnings, nil
}

// findGradeHeader scans for the row carrying the A/B/R grade columns and
// maps the column positions needed downstream.
func findGradeHeader(rows [][]string) (int, map[string]int) {
	for i, row := range rows {
		cols := map[string]int{}
		for j, h := range row {
			switch strings.ToUpper(strings.TrimSpace(h)) {
			case "A":
				cols["a"] = j
			case "B":
				cols["b"] = j
			case "R":
				cols["r"] = j
			}
			hl := strings.ToLower(strings.TrimSpace(h))
			if strings.Contains(hl, "size") || strings.Contains(hl, "규격") {
				cols["size"] = j
			}
			if strings.Contains(hl, "weight") || strings.Contains(hl, "중량") {
				cols["weight"] = j
			}
		}
		if _, okA := cols["a"]; okA {
			if _, okB := cols["b"]; okB {
				if _, okR := cols["r"]; okR {
					if _, okSize := cols["size"]; !okSize {
						cols["size"] = 0
					}
					return i, cols
				}
			}
		}
	}
	return -1, nil
}
