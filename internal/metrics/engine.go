// Package metrics recomputes the derived daily quality aggregates and
// operator performance statistics from the raw facts. Aggregates are
// always replaced in full for their (date, line, shift) key, never summed
// incrementally, so recomputation after a re-load converges to the same
// values.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"tirepulse/internal/store"
	"tirepulse/internal/transform"
	"tirepulse/pkg/contracts/domain"
)

// operatorWindowDays is the trailing window for operator performance.
const operatorWindowDays = 30

// Engine recomputes daily metrics and operator statistics.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// NewEngine creates a metrics engine over the store.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, logger: logger}
}

// RecomputeDirty recomputes every (date, line, shift) aggregate whose
// underlying inspections or batches changed after the watermark. Returns
// the number of aggregates rewritten.
func (e *Engine) RecomputeDirty(ctx context.Context, since time.Time) (int, error) {
	keys, err := e.store.DirtyDayKeys(ctx, since)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := e.RecomputeKey(ctx, key); err != nil {
			return 0, err
		}
	}
	if len(keys) > 0 {
		e.logger.Info("recomputed daily metrics",
			slog.Int("keys", len(keys)),
			slog.Time("since", since))
	}
	return len(keys), nil
}

// RecomputeKey rebuilds one (date, line, shift) aggregate from scratch.
// Batch sums take precedence for production totals; inspection sums fill
// in grades when no batch covers the key.
func (e *Engine) RecomputeKey(ctx context.Context, key store.DayKey) error {
	insp, err := e.store.AggregateInspections(ctx, key)
	if err != nil {
		return err
	}
	batch, err := e.store.AggregateBatches(ctx, key)
	if err != nil {
		return err
	}
	downMinutes, err := e.store.DownTimeMinutes(ctx, key.Date, key.LineCode)
	if err != nil {
		return err
	}

	m := buildMetric(key, insp, batch, downMinutes)
	if err := e.store.UpsertDailyMetric(ctx, m); err != nil {
		return err
	}
	return nil
}

// buildMetric derives a DailyQualityMetric from the raw sums using the
// canonical rate formulas.
func buildMetric(key store.DayKey, insp *store.InspectionAggregate, batch *store.BatchAggregate, downMinutes int) *domain.DailyQualityMetric {
	m := &domain.DailyQualityMetric{
		Date:            key.Date,
		LineCode:        key.LineCode,
		Shift:           key.Shift,
		InspectionCount: insp.Inspections,
		DefectCount:     insp.Defects,
		DownTimeMinutes: downMinutes,
	}

	if batch.Produced > 0 {
		m.TotalProduced = batch.Produced
		m.GradeA = batch.GradeA
		m.GradeB = batch.GradeB
		m.GradeR = batch.GradeR
	} else {
		m.TotalProduced = insp.Inspections
		m.GradeA = insp.GradeA
		m.GradeB = insp.GradeB
		m.GradeR = insp.GradeR
	}

	m.BRRate = transform.BRRate(m.GradeA, m.GradeB, m.GradeR)
	m.YieldRate = transform.YieldRate(m.GradeA, m.GradeB, m.GradeR)
	m.DefectRate = transform.DefectRate(m.DefectCount, m.InspectionCount)
	return m
}

// OperatorPerformance summarizes each inspector's trailing 30-day window
// and persists the rolled-up quality score and average B+R rate back onto
// the operator dimension.
func (e *Engine) OperatorPerformance(ctx context.Context, asOf time.Time) ([]domain.OperatorPerformance, error) {
	from := asOf.AddDate(0, 0, -operatorWindowDays)
	stats, err := e.store.OperatorStats(ctx, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load operator stats: %w", err)
	}

	var out []domain.OperatorPerformance
	for _, st := range stats {
		p := domain.OperatorPerformance{
			EmployeeID:      st.EmployeeID,
			Name:            st.Name,
			LineCode:        st.LineCode,
			Shift:           st.Shift,
			InspectionCount: st.Inspections,
			GradeA:          st.GradeA,
			GradeB:          st.GradeB,
			GradeR:          st.GradeR,
			AvgBRRate:       transform.BRRate(st.GradeA, st.GradeB, st.GradeR),
			QualityScore:    qualityScore(st),
			WindowStart:     from,
			WindowEnd:       asOf,
		}
		out = append(out, p)

		if err := e.store.UpdateOperatorStats(ctx, st.EmployeeID, p.QualityScore, p.AvgBRRate); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// qualityScore is the share of A-graded inspections on a 0-100 scale,
// penalized one point per rejected tire. Floored at zero.
func qualityScore(st store.OperatorWindowStats) float64 {
	if st.Inspections == 0 {
		return 0
	}
	score := float64(st.GradeA)/float64(st.Inspections)*100 - float64(st.GradeR)
	if score < 0 {
		return 0
	}
	return math.Round(score*100) / 100
}
