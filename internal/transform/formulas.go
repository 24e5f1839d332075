package transform

import (
	"math"
)

// round2 rounds half away from zero to two decimals, matching how the
// plant's spreadsheet reports round their percentages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BRRate returns the percentage of units graded B or R out of all graded
// units, rounded to two decimals. Zero graded units yields 0.
func BRRate(gradeA, gradeB, gradeR int) float64 {
	total := gradeA + gradeB + gradeR
	if total == 0 {
		return 0
	}
	return round2(100 * float64(gradeB+gradeR) / float64(total))
}

// YieldRate returns the percentage of units graded A out of all graded
// units, rounded to two decimals. Zero graded units yields 0.
func YieldRate(gradeA, gradeB, gradeR int) float64 {
	total := gradeA + gradeB + gradeR
	if total == 0 {
		return 0
	}
	return round2(100 * float64(gradeA) / float64(total))
}

// DefectRate returns defects per hundred inspections, rounded to two
// decimals. Zero inspections yields 0.
func DefectRate(defects, inspections int) float64 {
	if inspections == 0 {
		return 0
	}
	return round2(100 * float64(defects) / float64(inspections))
}
