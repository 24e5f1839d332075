package syncer

import (
	"regexp"
	"strings"
	"time"
)

// FileType classifies which parser pipeline a remote file routes to.
type FileType string

const (
	FileWeeklyProduction FileType = "weekly_production"
	FileDefectMatrix     FileType = "defect_matrix"
	FileDownTime         FileType = "down_time"
	FileDailyMeeting     FileType = "daily_meeting"
	FileUnknown          FileType = "unknown"
)

var (
	lineCodePattern = regexp.MustCompile(`(?i)\b(L\d+)\b|_(L\d+)[_.]`)
	datePattern     = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)
)

// ClassifyFile routes a file name to its pipeline. The plant's upload
// conventions are loose, so matching is keyword-based rather than a
// strict naming scheme; unknown files are skipped with a warning.
func ClassifyFile(name string) FileType {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		return FileUnknown
	}
	switch {
	case strings.Contains(lower, "defect"):
		return FileDefectMatrix
	case strings.Contains(lower, "downtime") || strings.Contains(lower, "down_time") || strings.Contains(lower, "down-time"):
		return FileDownTime
	case strings.Contains(lower, "meeting") || strings.Contains(lower, "daily"):
		return FileDailyMeeting
	case strings.Contains(lower, "production") || strings.Contains(lower, "weekly"):
		return FileWeeklyProduction
	default:
		return FileUnknown
	}
}

// lineCodeFromName extracts the production line code (e.g. "L2") embedded
// in a file name, or "" when absent.
func lineCodeFromName(name string) string {
	m := lineCodePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.ToUpper(g)
		}
	}
	return ""
}

// dateFromName extracts a yyyymmdd (or yyyy-mm-dd) date embedded in a
// file name. Falls back to the provided default when absent or invalid.
func dateFromName(name string, fallback time.Time) time.Time {
	m := datePattern.FindStringSubmatch(name)
	if m == nil {
		return fallback
	}
	t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return fallback
	}
	return t
}

// weekStartOf truncates to the Monday of the date's week, matching how
// the plant labels its weekly production sheets.
func weekStartOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// monthStartOf truncates to the first of the month, the period key for
// defect matrix tallies.
func monthStartOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
