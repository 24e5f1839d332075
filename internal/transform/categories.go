package transform

import (
	"strings"

	"tirepulse/pkg/contracts/domain"
)

// downTimeCategories maps the labels that appear in the down-time
// spreadsheets onto canonical categories. The sheets mix Korean and English
// headers, and the same label shows up with embedded newlines and stray
// whitespace depending on who edited the file, so lookups always go through
// normalizeLabel first. Unmapped labels fall back to CategoryOther rather
// than failing the row.
var downTimeCategories = map[string]domain.DownTimeCategory{
	"설비고장":              domain.CategoryEquipmentFailure,
	"설비 고장":             domain.CategoryEquipmentFailure,
	"equipment failure":     domain.CategoryEquipmentFailure,
	"breakdown":             domain.CategoryEquipmentFailure,
	"금형교체":              domain.CategoryMoldChange,
	"금형 교체":             domain.CategoryMoldChange,
	"mold change":           domain.CategoryMoldChange,
	"mould change":          domain.CategoryMoldChange,
	"자재부족":              domain.CategoryMaterialShortage,
	"자재 부족":             domain.CategoryMaterialShortage,
	"material shortage":     domain.CategoryMaterialShortage,
	"no material":           domain.CategoryMaterialShortage,
	"정전":                  domain.CategoryPowerOutage,
	"power outage":          domain.CategoryPowerOutage,
	"power failure":         domain.CategoryPowerOutage,
	"계획정비":              domain.CategoryPlannedMaint,
	"계획 정비":             domain.CategoryPlannedMaint,
	"planned maintenance":   domain.CategoryPlannedMaint,
	"pm":                    domain.CategoryPlannedMaint,
	"품질대기":              domain.CategoryQualityHold,
	"품질 대기":             domain.CategoryQualityHold,
	"quality hold":          domain.CategoryQualityHold,
	"quality wait":          domain.CategoryQualityHold,
	"휴식":                  domain.CategoryBreakTime,
	"중식":                  domain.CategoryBreakTime,
	"break":                 domain.CategoryBreakTime,
	"lunch":                 domain.CategoryBreakTime,
}

// normalizeLabel collapses the whitespace and newline variants seen in the
// source sheets into a single lookup form.
func normalizeLabel(label string) string {
	s := strings.ReplaceAll(label, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// MapDownTimeCategory resolves a raw spreadsheet label to a canonical
// down-time category. Unknown labels map to CategoryOther, never an error.
func MapDownTimeCategory(label string) domain.DownTimeCategory {
	if cat, ok := downTimeCategories[normalizeLabel(label)]; ok {
		return cat
	}
	return domain.CategoryOther
}
