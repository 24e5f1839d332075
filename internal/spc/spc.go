// Package spc implements the statistical process control calculations:
// 3-sigma control limits, Cp/Cpk process capability, and X-bar/R charts
// over daily weight subgroups.
package spc

import (
	"math"
	"sort"
	"time"
)

// ControlLimits are the 3-sigma limits for a numeric series. For count and
// rate data the lower limit is floored at zero.
type ControlLimits struct {
	Mean  float64 `json:"mean"`
	Sigma float64 `json:"sigma"`
	UCL   float64 `json:"ucl"`
	LCL   float64 `json:"lcl"`
}

// ComputeControlLimits derives mean, population standard deviation and
// 3-sigma limits. An empty series yields all zeros; a constant series
// yields UCL = LCL = mean.
func ComputeControlLimits(series []float64) ControlLimits {
	if len(series) == 0 {
		return ControlLimits{}
	}

	mean := meanOf(series)
	sigma := populationStdDev(series, mean)

	return ControlLimits{
		Mean:  mean,
		Sigma: sigma,
		UCL:   mean + 3*sigma,
		LCL:   math.Max(0, mean-3*sigma),
	}
}

// Capability holds process capability indices with their interpretation.
type Capability struct {
	Cp             float64 `json:"cp"`
	Cpk            float64 `json:"cpk"`
	Mean           float64 `json:"mean"`
	Sigma          float64 `json:"sigma"`
	LSL            float64 `json:"lsl"`
	USL            float64 `json:"usl"`
	SampleSize     int     `json:"sample_size"`
	Interpretation string  `json:"interpretation"`
}

// ProcessCapability computes Cp and Cpk against the given spec limits.
// Zero variance or an empty series never divides by zero: both indices are
// reported as 0 with interpretation "insufficient data".
func ProcessCapability(series []float64, lsl, usl float64) Capability {
	cap := Capability{LSL: lsl, USL: usl, SampleSize: len(series)}
	if len(series) == 0 {
		cap.Interpretation = "insufficient data"
		return cap
	}

	cap.Mean = meanOf(series)
	cap.Sigma = populationStdDev(series, cap.Mean)
	if cap.Sigma == 0 {
		cap.Interpretation = "insufficient data"
		return cap
	}

	cap.Cp = round2((usl - lsl) / (6 * cap.Sigma))
	cap.Cpk = round2(math.Min(
		(usl-cap.Mean)/(3*cap.Sigma),
		(cap.Mean-lsl)/(3*cap.Sigma),
	))
	cap.Interpretation = interpretCpk(cap.Cpk)
	return cap
}

func interpretCpk(cpk float64) string {
	switch {
	case cpk >= 2.0:
		return "excellent"
	case cpk >= 1.33:
		return "good"
	case cpk >= 1.0:
		return "adequate"
	default:
		return "poor"
	}
}

// Measurement is one raw observation with the day it belongs to.
type Measurement struct {
	Day   time.Time
	Value float64
}

// SubgroupPoint is one day's subgroup on an X-bar or R chart.
type SubgroupPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
	Size  int       `json:"size"`
}

// XBarRChart is the paired X-bar and R chart over daily subgroups. Control
// limits use the standard Shewhart chart constants for the observed
// subgroup size rather than re-derived sigma estimates.
type XBarRChart struct {
	XBar         []SubgroupPoint `json:"x_bar"`
	R            []SubgroupPoint `json:"r"`
	XBarUCL      float64         `json:"x_bar_ucl"`
	XBarLCL      float64         `json:"x_bar_lcl"`
	XBarCenter   float64         `json:"x_bar_center"`
	RUCL         float64         `json:"r_ucl"`
	RLCL         float64         `json:"r_lcl"`
	RCenter      float64         `json:"r_center"`
	SubgroupSize int             `json:"subgroup_size"`
}

// chartConstants holds A2/D3/D4 for a subgroup size.
type chartConstants struct {
	a2, d3, d4 float64
}

// Standard Shewhart control chart constants for subgroup sizes 2..10
// (ASTM STP 15-D). Larger subgroups are clamped to n=10.
var shewhartConstants = map[int]chartConstants{
	2:  {1.880, 0, 3.267},
	3:  {1.023, 0, 2.574},
	4:  {0.729, 0, 2.282},
	5:  {0.577, 0, 2.114},
	6:  {0.483, 0, 2.004},
	7:  {0.419, 0.076, 1.924},
	8:  {0.373, 0.136, 1.864},
	9:  {0.337, 0.184, 1.816},
	10: {0.308, 0.223, 1.777},
}

// ComputeXBarR groups measurements by day and builds the paired charts.
// Days with a single measurement contribute a zero range. Fewer than two
// days of data yields an empty chart.
func ComputeXBarR(measurements []Measurement) XBarRChart {
	groups := make(map[time.Time][]float64)
	for _, m := range measurements {
		day := m.Day.Truncate(24 * time.Hour)
		groups[day] = append(groups[day], m.Value)
	}
	if len(groups) < 2 {
		return XBarRChart{}
	}

	days := make([]time.Time, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	chart := XBarRChart{SubgroupSize: typicalSubgroupSize(groups)}
	for _, day := range days {
		values := groups[day]
		chart.XBar = append(chart.XBar, SubgroupPoint{Day: day, Value: meanOf(values), Size: len(values)})
		chart.R = append(chart.R, SubgroupPoint{Day: day, Value: rangeOf(values), Size: len(values)})
	}

	xBarValues := make([]float64, len(chart.XBar))
	rValues := make([]float64, len(chart.R))
	for i := range chart.XBar {
		xBarValues[i] = chart.XBar[i].Value
		rValues[i] = chart.R[i].Value
	}
	chart.XBarCenter = meanOf(xBarValues)
	chart.RCenter = meanOf(rValues)

	c := shewhartConstants[chart.SubgroupSize]
	chart.XBarUCL = chart.XBarCenter + c.a2*chart.RCenter
	chart.XBarLCL = chart.XBarCenter - c.a2*chart.RCenter
	chart.RUCL = c.d4 * chart.RCenter
	chart.RLCL = c.d3 * chart.RCenter
	return chart
}

// typicalSubgroupSize picks the most common daily subgroup size, clamped
// to the 2..10 range the constants table covers.
func typicalSubgroupSize(groups map[time.Time][]float64) int {
	counts := make(map[int]int)
	for _, values := range groups {
		counts[len(values)]++
	}
	size, best := 2, 0
	for n, c := range counts {
		if c > best || (c == best && n > size) {
			size, best = n, c
		}
	}
	if size < 2 {
		size = 2
	}
	if size > 10 {
		size = 10
	}
	return size
}

func meanOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func populationStdDev(series []float64, mean float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range series {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(series)))
}

func rangeOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	min, max := series[0], series[0]
	for _, v := range series[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
