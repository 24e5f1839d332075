// Package coq computes the cost-of-quality report: internal and external
// failure, appraisal and prevention costs, their trend against the prior
// period, and the top cost drivers.
package coq

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"tirepulse/internal/store"
)

// CostRates prices the raw quantities the store aggregates. These come
// from configuration; the configured defaults reflect plant accounting's
// standard rates.
type CostRates struct {
	UnitInspectionCost  float64 `yaml:"unit_inspection_cost" envconfig:"UNIT_INSPECTION_COST"`
	DownTimeCostPerMin  float64 `yaml:"down_time_cost_per_min" envconfig:"DOWN_TIME_COST_PER_MIN"`
	ExternalFailureCost float64 `yaml:"external_failure_cost" envconfig:"EXTERNAL_FAILURE_COST"`
	PreventionCost      float64 `yaml:"prevention_cost" envconfig:"PREVENTION_COST"`
}

// CostDriver is one component of total COQ with its share of the total.
type CostDriver struct {
	Name       string  `json:"name"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// Report is the cost-of-quality summary for one period.
type Report struct {
	PeriodStart         time.Time    `json:"period_start"`
	PeriodEnd           time.Time    `json:"period_end"`
	ReworkCost          float64      `json:"rework_cost"`
	ScrapCost           float64      `json:"scrap_cost"`
	DownTimeCost        float64      `json:"down_time_cost"`
	InternalFailureCost float64      `json:"internal_failure_cost"`
	ExternalFailureCost float64      `json:"external_failure_cost"`
	AppraisalCost       float64      `json:"appraisal_cost"`
	PreventionCost      float64      `json:"prevention_cost"`
	TotalCOQ            float64      `json:"total_coq"`
	COQPerTire          float64      `json:"coq_per_tire"`
	TiresProduced       int          `json:"tires_produced"`
	VsLastPeriod        float64      `json:"vs_last_period"`
	TopDrivers          []CostDriver `json:"top_drivers"`
}

// Engine computes cost-of-quality reports from the store.
type Engine struct {
	store  *store.Store
	rates  CostRates
	logger *slog.Logger
}

// NewEngine creates a COQ engine with the given cost rates.
func NewEngine(st *store.Store, rates CostRates, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, rates: rates, logger: logger}
}

// Report builds the COQ report for [from, to], comparing against the
// equal-length period immediately before it.
func (e *Engine) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	current, err := e.totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute current period: %w", err)
	}

	span := to.Sub(from)
	prior, err := e.totals(ctx, from.Add(-span), from)
	if err != nil {
		return nil, fmt.Errorf("failed to compute prior period: %w", err)
	}

	current.VsLastPeriod = trend(current.TotalCOQ, prior.TotalCOQ)
	e.logger.Debug("computed COQ report",
		slog.Float64("total", current.TotalCOQ),
		slog.Float64("vs_last_period", current.VsLastPeriod))
	return current, nil
}

func (e *Engine) totals(ctx context.Context, from, to time.Time) (*Report, error) {
	in, err := e.store.AggregateCOQInputs(ctx, from, to)
	if err != nil {
		return nil, err
	}

	r := &Report{
		PeriodStart:         from,
		PeriodEnd:           to,
		ReworkCost:          round2(in.ReworkCost),
		ScrapCost:           round2(in.ScrapCost),
		DownTimeCost:        round2(float64(in.DownTimeMinutes) * e.rates.DownTimeCostPerMin),
		ExternalFailureCost: round2(e.rates.ExternalFailureCost),
		AppraisalCost:       round2(float64(in.InspectionCount) * e.rates.UnitInspectionCost),
		PreventionCost:      round2(e.rates.PreventionCost),
		TiresProduced:       in.TiresProduced,
	}
	r.InternalFailureCost = round2(r.ReworkCost + r.ScrapCost + r.DownTimeCost)
	r.TotalCOQ = round2(r.InternalFailureCost + r.ExternalFailureCost + r.AppraisalCost + r.PreventionCost)
	if in.TiresProduced > 0 {
		r.COQPerTire = round2(r.TotalCOQ / float64(in.TiresProduced))
	}
	r.TopDrivers = topDrivers(r)
	return r, nil
}

// trend is the percent change versus the prior period. A zero prior period
// reports 0, never infinity or NaN.
func trend(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return round2((current - prior) / prior * 100)
}

// topDrivers ranks the cost components descending with their share of the
// total.
func topDrivers(r *Report) []CostDriver {
	drivers := []CostDriver{
		{Name: "rework", Cost: r.ReworkCost},
		{Name: "scrap", Cost: r.ScrapCost},
		{Name: "down_time", Cost: r.DownTimeCost},
		{Name: "external_failure", Cost: r.ExternalFailureCost},
		{Name: "appraisal", Cost: r.AppraisalCost},
		{Name: "prevention", Cost: r.PreventionCost},
	}
	sort.SliceStable(drivers, func(i, j int) bool { return drivers[i].Cost > drivers[j].Cost })

	var out []CostDriver
	for _, d := range drivers {
		if d.Cost <= 0 {
			continue
		}
		if r.TotalCOQ > 0 {
			d.Percentage = round2(d.Cost / r.TotalCOQ * 100)
		}
		out = append(out, d)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
