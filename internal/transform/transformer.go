package transform

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tirepulse/internal/parsers"
	"tirepulse/pkg/contracts/domain"
)

// Warning records a data-quality problem found while transforming parsed
// rows into canonical records. The offending row is dropped or flagged,
// never silently coerced.
type Warning struct {
	Record  string `json:"record"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Record, w.Message)
}

// Transformer maps parser output into canonical domain records.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer creates a transformer.
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{logger: logger}
}

// WeeklyProduction turns weekly production rows into production batches.
// The batch number is the natural key <line>-<weekstart>-<size>, so
// re-transforming the same file always yields the same keys.
func (t *Transformer) WeeklyProduction(rows []parsers.WeeklyProductionRow, lineCode string, weekStart time.Time) ([]domain.ProductionBatch, []Warning) {
	var out []domain.ProductionBatch
	var warnings []Warning

	for _, r := range rows {
		if r.GradeA < 0 || r.GradeB < 0 || r.GradeR < 0 {
			warnings = append(warnings, Warning{Record: r.TireSize, Message: "negative grade count, row dropped"})
			continue
		}
		graded := r.GradeA + r.GradeB + r.GradeR
		if graded > r.Total {
			warnings = append(warnings, Warning{
				Record:  r.TireSize,
				Message: fmt.Sprintf("grade counts %d exceed total %d, row dropped", graded, r.Total),
			})
			continue
		}

		end := weekStart.AddDate(0, 0, 7)
		out = append(out, domain.ProductionBatch{
			BatchNumber:    batchNumber(lineCode, weekStart, r.TireSize),
			TireModelSKU:   sizeToSKU(r.TireSize),
			LineCode:       lineCode,
			TargetQuantity: r.Total,
			ActualQuantity: r.Total,
			GradeA:         r.GradeA,
			GradeB:         r.GradeB,
			GradeR:         r.GradeR,
			BRRate:         BRRate(r.GradeA, r.GradeB, r.GradeR),
			YieldRate:      YieldRate(r.GradeA, r.GradeB, r.GradeR),
			Status:         domain.BatchStatusCompleted,
			StartTime:      weekStart,
			EndTime:        &end,
		})
	}

	t.logger.Debug("transformed weekly production",
		slog.String("line", lineCode),
		slog.Int("batches", len(out)),
		slog.Int("warnings", len(warnings)))

	return out, warnings
}

// DefectMatrix turns defect matrix rows into defect types plus per-period
// tallies. The defect type code is derived from the sheet's defect index.
func (t *Transformer) DefectMatrix(rows []parsers.DefectMatrixRow, period time.Time) ([]domain.DefectType, []domain.DefectTally, []Warning) {
	var warnings []Warning
	types := make(map[string]domain.DefectType)
	var tallies []domain.DefectTally

	for _, r := range rows {
		if r.Count <= 0 {
			warnings = append(warnings, Warning{Record: r.DefectName, Message: "non-positive count, row dropped"})
			continue
		}
		code := DefectCode(r.DefectIndex)
		if _, seen := types[code]; !seen {
			types[code] = domain.DefectType{
				Code:         code,
				Name:         r.DefectName,
				Category:     defectCategory(r.DefectName),
				Severity:     domain.SeverityMajor,
				TypicalGrade: domain.GradeR,
			}
		}
		tallies = append(tallies, domain.DefectTally{
			Period:     period,
			DefectCode: code,
			TireSize:   r.TireSize,
			Count:      r.Count,
		})
	}

	out := make([]domain.DefectType, 0, len(types))
	for _, dt := range types {
		out = append(out, dt)
	}
	return out, tallies, warnings
}

// DownTime turns down-time rows into resolved down-time events anchored to
// the given calendar day. Ranges that cross midnight are clamped with a
// warning. Labels that fall back to the "other" category are flagged so the
// unmapped label surfaces in the sync job.
func (t *Transformer) DownTime(rows []parsers.DownTimeRow, lineCode string, day time.Time) ([]domain.DownTimeEvent, []Warning) {
	var out []domain.DownTimeEvent
	var warnings []Warning

	for _, r := range rows {
		start, okS := clockOn(day, r.StartClock)
		end, okE := clockOn(day, r.EndClock)
		if !okS || !okE {
			warnings = append(warnings, Warning{Record: r.StartClock + "~" + r.EndClock, Message: "unparsable time range, row dropped"})
			continue
		}
		if end.Before(start) {
			warnings = append(warnings, Warning{Record: r.StartClock + "~" + r.EndClock, Message: "range crosses midnight, clamped to end of day"})
			end = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 0, 0, day.Location())
		}
		if r.Minutes <= 0 {
			continue
		}

		cat := MapDownTimeCategory(r.CategoryLabel)
		if cat == domain.CategoryOther {
			warnings = append(warnings, Warning{Record: r.CategoryLabel, Message: "unmapped down-time category, recorded as other"})
		}

		out = append(out, domain.DownTimeEvent{
			LineCode:  lineCode,
			Category:  cat,
			Reason:    r.CategoryLabel,
			StartTime: start,
			EndTime:   &end,
			Minutes:   r.Minutes,
			Status:    domain.DownTimeResolved,
		})
	}

	t.logger.Debug("transformed down-time log",
		slog.String("line", lineCode),
		slog.Int("events", len(out)),
		slog.Int("warnings", len(warnings)))

	return out, warnings
}

// DailyMeeting turns daily meeting records into meeting summaries. Records
// without a line code are dropped with a warning.
func (t *Transformer) DailyMeeting(records []parsers.DailyMeetingRecord) ([]domain.MeetingSummary, []Warning) {
	var out []domain.MeetingSummary
	var warnings []Warning

	for _, r := range records {
		if r.LineCode == "" {
			warnings = append(warnings, Warning{Record: r.Date.Format("2006-01-02"), Message: "meeting record without line code, dropped"})
			continue
		}
		out = append(out, domain.MeetingSummary{
			Date:           r.Date,
			LineCode:       r.LineCode,
			ReportedBRRate: r.BRRate,
			ReportedOutput: r.Produced,
			Notes:          r.Notes,
		})
	}
	return out, warnings
}

// DefectCode derives the canonical defect type code from the matrix index.
func DefectCode(index int) string {
	return fmt.Sprintf("D%02d", index)
}

// batchNumber builds the natural key for a weekly production batch.
func batchNumber(lineCode string, weekStart time.Time, tireSize string) string {
	size := strings.Map(func(r rune) rune {
		if r == '/' || r == ' ' {
			return '-'
		}
		return r
	}, tireSize)
	return fmt.Sprintf("%s-%s-%s", lineCode, weekStart.Format("20060102"), size)
}

// sizeToSKU normalizes a tire size label into a catalog SKU.
func sizeToSKU(tireSize string) string {
	return strings.ToUpper(strings.Join(strings.Fields(tireSize), ""))
}

// defectCategory buckets a defect name into a coarse category used by the
// defect analysis engine.
var defectCategoryKeywords = map[string]string{
	"blister":  "curing",
	"bare":     "curing",
	"light":    "curing",
	"crack":    "curing",
	"foreign":  "material",
	"cord":     "material",
	"bead":     "building",
	"joint":    "building",
	"splice":   "building",
	"balance":  "uniformity",
	"runout":   "uniformity",
}

func defectCategory(name string) string {
	lower := strings.ToLower(name)
	for kw, cat := range defectCategoryKeywords {
		if strings.Contains(lower, kw) {
			return cat
		}
	}
	return "general"
}

// clockOn anchors a clock string like "7:00" onto the given day.
func clockOn(day time.Time, clock string) (time.Time, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), true
}
