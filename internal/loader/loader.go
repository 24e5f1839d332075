// Package loader owns all fact writes into the relational store. It
// validates canonical records, resolves dimension records by natural key
// (creating them on first reference), and upserts facts idempotently:
// re-loading an unchanged source file produces zero net new rows.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"tirepulse/internal/store"
	"tirepulse/pkg/contracts/domain"
)

// LoadResult mirrors the DataSyncJob record counters for one load call.
type LoadResult struct {
	Processed int      `json:"processed"`
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (r *LoadResult) record(outcome store.UpsertOutcome) {
	switch outcome {
	case store.OutcomeInserted:
		r.Inserted++
	case store.OutcomeUpdated:
		r.Updated++
	default:
		r.Skipped++
	}
}

func (r *LoadResult) fail(format string, args ...any) {
	r.Failed++
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge folds another result into this one.
func (r *LoadResult) Merge(other *LoadResult) {
	if other == nil {
		return
	}
	r.Processed += other.Processed
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Loader validates and upserts canonical records.
type Loader struct {
	store    *store.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a loader over the given store.
func New(st *store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:    st,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// LoadBatches upserts production batches, creating line and tire model
// dimensions on first reference.
func (l *Loader) LoadBatches(ctx context.Context, batches []domain.ProductionBatch) (*LoadResult, error) {
	res := &LoadResult{}
	for i := range batches {
		b := &batches[i]
		res.Processed++

		if err := l.validate.Struct(b); err != nil {
			res.fail("batch %s failed validation: %v", b.BatchNumber, err)
			continue
		}
		if b.GradedTotal() > b.ActualQuantity {
			res.fail("batch %s grade counts exceed quantity, dropped", b.BatchNumber)
			continue
		}

		if err := l.store.EnsureLine(ctx, b.LineCode); err != nil {
			return res, err
		}
		if err := l.store.EnsureTireModel(ctx, b.TireModelSKU); err != nil {
			return res, err
		}

		outcome, err := l.store.UpsertBatch(ctx, b)
		if err != nil {
			res.fail("batch %s upsert failed: %v", b.BatchNumber, err)
			continue
		}
		if outcome == store.OutcomeUpdated {
			l.logger.Warn("batch re-loaded with differing values, last write wins",
				slog.String("batch", b.BatchNumber))
		}
		res.record(outcome)
	}
	return res, nil
}

// LoadDefectData upserts defect type dimensions and their period tallies,
// then refreshes the derived occurrence counters.
func (l *Loader) LoadDefectData(ctx context.Context, types []domain.DefectType, tallies []domain.DefectTally) (*LoadResult, error) {
	res := &LoadResult{}

	for i := range types {
		dt := &types[i]
		if err := l.validate.Struct(dt); err != nil {
			res.fail("defect type %s failed validation: %v", dt.Code, err)
			continue
		}
		if _, err := l.store.UpsertDefectType(ctx, dt); err != nil {
			res.fail("defect type %s upsert failed: %v", dt.Code, err)
		}
	}

	for i := range tallies {
		t := &tallies[i]
		res.Processed++
		if err := l.validate.Struct(t); err != nil {
			res.fail("tally %s/%s failed validation: %v", t.DefectCode, t.TireSize, err)
			continue
		}
		outcome, err := l.store.UpsertDefectTally(ctx, t)
		if err != nil {
			res.fail("tally %s/%s upsert failed: %v", t.DefectCode, t.TireSize, err)
			continue
		}
		res.record(outcome)
	}

	if err := l.store.RefreshDefectOccurrences(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// LoadDownTime upserts resolved down-time events.
func (l *Loader) LoadDownTime(ctx context.Context, events []domain.DownTimeEvent) (*LoadResult, error) {
	res := &LoadResult{}
	for i := range events {
		e := &events[i]
		res.Processed++

		if err := l.validate.Struct(e); err != nil {
			res.fail("down-time %s@%s failed validation: %v", e.LineCode, e.StartTime.Format("15:04"), err)
			continue
		}
		if err := l.store.EnsureLine(ctx, e.LineCode); err != nil {
			return res, err
		}

		outcome, err := l.store.UpsertDownTime(ctx, e)
		if err != nil {
			res.fail("down-time %s@%s upsert failed: %v", e.LineCode, e.StartTime.Format("15:04"), err)
			continue
		}
		res.record(outcome)
	}
	return res, nil
}

// LoadMeetingSummaries upserts daily meeting extracts.
func (l *Loader) LoadMeetingSummaries(ctx context.Context, summaries []domain.MeetingSummary) (*LoadResult, error) {
	res := &LoadResult{}
	for i := range summaries {
		m := &summaries[i]
		res.Processed++

		if err := l.validate.Struct(m); err != nil {
			res.fail("meeting summary %s failed validation: %v", m.LineCode, err)
			continue
		}
		outcome, err := l.store.UpsertMeetingSummary(ctx, m)
		if err != nil {
			res.fail("meeting summary %s upsert failed: %v", m.LineCode, err)
			continue
		}
		res.record(outcome)
	}
	return res, nil
}

// InspectionRecord pairs a quality inspection with its defect records.
type InspectionRecord struct {
	Inspection domain.QualityInspection
	Defects    []domain.DefectRecord
}

// LoadInspections upserts inspections keyed by serial number plus their
// child defect records. Defect records on an A-graded inspection are a
// data-quality violation and are dropped with a warning.
func (l *Loader) LoadInspections(ctx context.Context, records []InspectionRecord) (*LoadResult, error) {
	res := &LoadResult{}
	for i := range records {
		rec := &records[i]
		insp := &rec.Inspection
		res.Processed++

		if err := l.validate.Struct(insp); err != nil {
			res.fail("inspection %s failed validation: %v", insp.SerialNumber, err)
			continue
		}
		if insp.Grade == domain.GradeA && len(rec.Defects) > 0 {
			res.fail("inspection %s graded A but carries defects, defects dropped", insp.SerialNumber)
			rec.Defects = nil
		}

		if err := l.store.EnsureLine(ctx, insp.LineCode); err != nil {
			return res, err
		}
		if err := l.store.EnsureTireModel(ctx, insp.TireModelSKU); err != nil {
			return res, err
		}
		if insp.InspectorID != "" {
			if err := l.store.EnsureOperator(ctx, insp.InspectorID); err != nil {
				return res, err
			}
		}

		outcome, err := l.store.UpsertInspection(ctx, insp)
		if err != nil {
			res.fail("inspection %s upsert failed: %v", insp.SerialNumber, err)
			continue
		}
		res.record(outcome)

		if len(rec.Defects) == 0 {
			continue
		}
		inspectionID, err := l.store.InspectionIDBySerial(ctx, insp.SerialNumber)
		if err != nil {
			res.fail("inspection %s: %v", insp.SerialNumber, err)
			continue
		}
		for j := range rec.Defects {
			d := &rec.Defects[j]
			d.InspectionID = inspectionID
			if _, err := l.store.UpsertDefectRecord(ctx, d); err != nil {
				res.fail("defect %s on %s upsert failed: %v", d.DefectTypeCode, insp.SerialNumber, err)
			}
		}
	}
	return res, nil
}
