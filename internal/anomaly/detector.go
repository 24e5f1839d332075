// Package anomaly flags spikes and drift in quality metric series against
// their trailing control limits and attaches fixed cause/action heuristics.
package anomaly

import (
	"fmt"
	"log/slog"
	"math"

	"tirepulse/internal/spc"
)

// minWindow is the minimum number of trailing data points required before
// any rule fires. Shorter series yield no anomalies.
const minWindow = 7

// driftRun is how many trailing points must be monotonically non-decreasing
// for the drift rule.
const driftRun = 7

// Severity of a detected anomaly.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Kind of anomaly detected.
type Kind string

const (
	KindSpike Kind = "spike"
	KindDrift Kind = "drift"
)

// Anomaly is one detected deviation with its fixed, documented heuristics.
// The causes and actions are lookup tables, not learned output.
type Anomaly struct {
	Kind          Kind     `json:"kind"`
	Metric        string   `json:"metric"`
	LineCode      string   `json:"line_code,omitempty"`
	Severity      Severity `json:"severity"`
	CurrentValue  float64  `json:"current_value"`
	ExpectedValue float64  `json:"expected_value"`
	Deviation     float64  `json:"deviation"`
	Causes        []string `json:"causes"`
	Actions       []string `json:"actions"`
	Confidence    float64  `json:"confidence"`
	Description   string   `json:"description"`
}

// Detector evaluates metric series against the spike and drift rules.
type Detector struct {
	// HighSpikeThreshold is the absolute value above which a spike is
	// escalated from medium to high severity.
	HighSpikeThreshold float64

	logger *slog.Logger
}

// NewDetector creates a detector. highSpikeThreshold is metric-specific
// (e.g. an absolute B+R rate the plant considers alarming regardless of
// the control limits).
func NewDetector(highSpikeThreshold float64, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{HighSpikeThreshold: highSpikeThreshold, logger: logger}
}

// spikeCauses and driftCauses are the fixed heuristics shipped with the
// detector, written with plant engineering.
var spikeCauses = []string{
	"new material lot introduced",
	"mold or tooling change on the line",
	"inexperienced operator on shift",
	"curing press temperature deviation",
}

var spikeActions = []string{
	"review the line's down-time and changeover log for the day",
	"pull the day's defect Pareto and check the top defect type",
	"verify curing press parameters against the tire model's spec",
}

var driftCauses = []string{
	"gradual tooling wear",
	"slow raw-material property drift",
	"measurement instrument drifting out of calibration",
}

var driftActions = []string{
	"schedule a tooling inspection",
	"compare recent material certificates against spec",
	"recalibrate the inspection instruments",
}

// Evaluate runs both rules over a trailing series for one metric. The
// series must be ordered oldest first; the last element is "today". Fewer
// than minWindow points yields no anomalies.
func (d *Detector) Evaluate(metric, lineCode string, series []float64) []Anomaly {
	if len(series) < minWindow {
		return nil
	}

	var out []Anomaly
	latest := series[len(series)-1]
	limits := spc.ComputeControlLimits(series[:len(series)-1])

	if limits.Sigma > 0 && latest > limits.UCL {
		severity := SeverityMedium
		confidence := 0.7
		if d.HighSpikeThreshold > 0 && latest > d.HighSpikeThreshold {
			severity = SeverityHigh
			confidence = 0.9
		}
		out = append(out, Anomaly{
			Kind:          KindSpike,
			Metric:        metric,
			LineCode:      lineCode,
			Severity:      severity,
			CurrentValue:  latest,
			ExpectedValue: round2(limits.Mean),
			Deviation:     round2(latest - limits.Mean),
			Causes:        spikeCauses,
			Actions:       spikeActions,
			Confidence:    confidence,
			Description:   fmt.Sprintf("%s spiked to %.2f, above the control limit %.2f", metric, latest, limits.UCL),
		})
	}

	if isDrift(series) {
		mean := spc.ComputeControlLimits(series).Mean
		out = append(out, Anomaly{
			Kind:          KindDrift,
			Metric:        metric,
			LineCode:      lineCode,
			Severity:      SeverityMedium,
			CurrentValue:  latest,
			ExpectedValue: round2(mean),
			Deviation:     round2(latest - mean),
			Causes:        driftCauses,
			Actions:       driftActions,
			Confidence:    0.6,
			Description:   fmt.Sprintf("%s has been rising for %d days and now exceeds its mean %.2f", metric, driftRun, mean),
		})
	}

	if len(out) > 0 {
		d.logger.Info("anomalies detected",
			slog.String("metric", metric),
			slog.String("line", lineCode),
			slog.Int("count", len(out)))
	}
	return out
}

// isDrift reports whether the last driftRun values are monotonically
// non-decreasing and the latest exceeds the whole series mean.
func isDrift(series []float64) bool {
	if len(series) < driftRun {
		return false
	}
	tail := series[len(series)-driftRun:]
	for i := 1; i < len(tail); i++ {
		if tail[i] < tail[i-1] {
			return false
		}
	}
	return series[len(series)-1] > spc.ComputeControlLimits(series).Mean
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
