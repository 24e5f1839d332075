package parsers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Warning records a non-fatal problem encountered while parsing a sheet.
// Parsers accumulate warnings instead of failing, so one malformed row can
// never abort a whole file's sync.
type Warning struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Sheet == "" {
		return fmt.Sprintf("row %d: %s", w.Row, w.Message)
	}
	return fmt.Sprintf("%s row %d: %s", w.Sheet, w.Row, w.Message)
}

// openWorkbook opens an xlsx workbook from raw bytes.
func openWorkbook(data []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return f, nil
}

// cell returns the trimmed cell at index i, or "" when the row is shorter.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseIntCell parses an integer cell, tolerating thousands separators and
// trailing decimals the way the plant's sheets format counts.
func parseIntCell(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	// Some sheets store counts as "12.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// parseFloatCell parses a float cell, returning 0 and false on failure so
// callers can log a warning instead of aborting.
func parseFloatCell(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isBlankRow reports whether every cell in the row is empty after trimming.
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
