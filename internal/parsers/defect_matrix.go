package parsers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// DefectMatrixRow is one (defect, tire size) cell from the defect matrix
// sheet, already exploded from matrix form into row form.
type DefectMatrixRow struct {
	DefectIndex int    `json:"defect_index"`
	DefectName  string `json:"defect_name"`
	TireSize    string `json:"tire_size"`
	Count       int    `json:"count"`
}

// defectMatrixHeaderRows is the number of title/legend rows above the
// column header row in the defect matrix layout. The row at this index is
// the header row itself: first column holds the defect index and English
// name, every later column is headed by a tire size.
const defectMatrixHeaderRows = 2

// DefectMatrixParser parses the monthly defect-count matrix (defect rows ×
// tire-size columns).
type DefectMatrixParser struct {
	logger *slog.Logger
}

// NewDefectMatrixParser creates a defect matrix parser.
func NewDefectMatrixParser(logger *slog.Logger) *DefectMatrixParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefectMatrixParser{logger: logger}
}

// Parse reads the first sheet of the workbook and explodes the matrix into
// one row per (defect, tire size) pair. Cells with a non-positive count are
// dropped, not passed downstream. Malformed rows are skipped with a warning.
func (p *DefectMatrixParser) Parse(data []byte) ([]DefectMatrixRow, []Warning, error) {
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
	if len(rows) <= defectMatrixHeaderRows {
		warnings = append(warnings, Warning{Sheet: sheet, Row: 0, Message: "sheet has no data rows"})
		return nil, warnings, nil
	}

	header := rows[defectMatrixHeaderRows]
	sizes := make(map[int]string)
	for j := 1; j < len(header); j++ {
		if size := cell(header, j); size != "" {
			sizes[j] = size
		}
	}
	if len(sizes) == 0 {
		warnings = append(warnings, Warning{Sheet: sheet, Row: defectMatrixHeaderRows + 1, Message: "no tire size columns in header row"})
		return nil, warnings, nil
	}

	var out []DefectMatrixRow
	for i := defectMatrixHeaderRows + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}

		idx, name, ok := splitDefectLabel(cell(row, 0))
		if !ok {
			warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("unrecognized defect label %q", cell(row, 0))})
			continue
		}

		for j, size := range sizes {
			raw := cell(row, j)
			if raw == "" {
				continue
			}
			count, ok := parseIntCell(raw)
			if !ok {
				warnings = append(warnings, Warning{Sheet: sheet, Row: i + 1, Message: fmt.Sprintf("bad count %q for size %s", raw, size)})
				continue
			}
			if count <= 0 {
				continue
			}
			out = append(out, DefectMatrixRow{
				DefectIndex: idx,
				DefectName:  name,
				TireSize:    size,
				Count:       count,
			})
		}
	}

	p.logger.Debug("parsed defect matrix",
		slog.String("sheet", sheet),
		slog.Int("rows", len(out)),
		slog.Int("warnings", len(warnings)))

	return out, warnings, nil
}

// splitDefectLabel splits labels like "3. Blister" or "12 Bare Spot" into
// index and English name.
func splitDefectLabel(label string) (int, string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, "", false
	}
	fields := strings.Fields(label)
	idxPart := strings.TrimSuffix(strings.TrimSuffix(fields[0], "."), ")")
	idx, err := strconv.Atoi(idxPart)
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSpace(strings.Join(fields[1:], " "))
	if name == "" {
		return 0, "", false
	}
	return idx, name, true
}
