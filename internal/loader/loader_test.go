package loader

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tirepulse/internal/store"
	"tirepulse/pkg/contracts/domain"
)

func newMockLoader(t *testing.T) (*Loader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(store.NewWithDB(db, nil), nil), mock
}

func insertedRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"?column?"}).AddRow(true)
}

func TestLoadBatches(t *testing.T) {
	l, mock := newMockLoader(t)

	// Only the valid batch reaches the store.
	mock.ExpectExec("INSERT INTO production_lines").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tire_models").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO production_batches").WillReturnRows(insertedRow())

	batches := []domain.ProductionBatch{
		{
			BatchNumber:    "L2-20260824-205-55R16",
			TireModelSKU:   "205/55R16",
			LineCode:       "L2",
			ActualQuantity: 1000,
			GradeA:         950, GradeB: 30, GradeR: 20,
			Status:    domain.BatchStatusCompleted,
			StartTime: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			// Missing batch number fails validation.
			TireModelSKU: "205/55R16", LineCode: "L2",
			Status: domain.BatchStatusCompleted,
		},
		{
			// Grade counts exceed the produced quantity.
			BatchNumber:  "L2-20260824-185-60R15",
			TireModelSKU: "185/60R15", LineCode: "L2",
			ActualQuantity: 5, GradeA: 10,
			Status: domain.BatchStatusCompleted,
		},
	}

	res, err := l.LoadBatches(context.Background(), batches)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "failed validation")
	assert.Contains(t, res.Warnings[1], "exceed quantity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInspectionsDropsDefectsOnGradeA(t *testing.T) {
	l, mock := newMockLoader(t)

	mock.ExpectExec("INSERT INTO production_lines").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tire_models").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO quality_inspections").WillReturnRows(insertedRow())
	// No defect record writes: the A grade dropped them.

	records := []InspectionRecord{{
		Inspection: domain.QualityInspection{
			SerialNumber: "SN-001",
			TireModelSKU: "205/55R16",
			LineCode:     "L1",
			Grade:        domain.GradeA,
			InspectedAt:  time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
		},
		Defects: []domain.DefectRecord{{DefectTypeCode: "D01"}},
	}}

	res, err := l.LoadInspections(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted, "the inspection itself still loads")
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "defects dropped")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMeetingSummariesValidation(t *testing.T) {
	l, mock := newMockLoader(t)

	summaries := []domain.MeetingSummary{
		{Date: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)}, // no line code
	}

	res, err := l.LoadMeetingSummaries(context.Background(), summaries)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Inserted)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing reaches the store")
}

func TestLoadResultMerge(t *testing.T) {
	r := &LoadResult{Processed: 2, Inserted: 1, Warnings: []string{"a"}}
	r.Merge(&LoadResult{Processed: 3, Updated: 2, Failed: 1, Warnings: []string{"b"}})
	r.Merge(nil)

	assert.Equal(t, 5, r.Processed)
	assert.Equal(t, 1, r.Inserted)
	assert.Equal(t, 2, r.Updated)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, []string{"a", "b"}, r.Warnings)
}
