package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tirepulse/pkg/contracts/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, nil), mock
}

func sampleBatch() *domain.ProductionBatch {
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	return &domain.ProductionBatch{
		BatchNumber:    "L2-20260824-205-55R16",
		TireModelSKU:   "205/55R16",
		LineCode:       "L2",
		ActualQuantity: 1000,
		GradeA:         950,
		GradeB:         30,
		GradeR:         20,
		BRRate:         5.00,
		YieldRate:      95.00,
		Status:         domain.BatchStatusCompleted,
		StartTime:      time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		EndTime:        &end,
	}
}

func TestUpsertBatchOutcomes(t *testing.T) {
	t.Run("fresh row reports inserted", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery("INSERT INTO production_batches").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(true))

		outcome, err := st.UpsertBatch(context.Background(), sampleBatch())
		require.NoError(t, err)
		assert.Equal(t, OutcomeInserted, outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("changed row reports updated", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery("INSERT INTO production_batches").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(false))

		outcome, err := st.UpsertBatch(context.Background(), sampleBatch())
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, outcome)
	})

	t.Run("identical row reports skipped", func(t *testing.T) {
		// The guarded upsert returns no row when nothing changed.
		st, mock := newMockStore(t)
		mock.ExpectQuery("INSERT INTO production_batches").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		outcome, err := st.UpsertBatch(context.Background(), sampleBatch())
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
	})
}

func TestUpsertDefectTally(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO defect_tallies").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(true))

	outcome, err := st.UpsertDefectTally(context.Background(), &domain.DefectTally{
		Period:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DefectCode: "D01",
		TireSize:   "205/55R16",
		Count:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveDownTimeNoOpenEvent(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec("UPDATE down_time_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.ResolveDownTime(context.Background(), "L1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ongoing down-time event")
}

func TestLastSuccessfulSync(t *testing.T) {
	t.Run("never synced returns zero time", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectQuery("SELECT start_time FROM data_sync_jobs").
			WithArgs("report.xlsx").
			WillReturnRows(sqlmock.NewRows([]string{"start_time"}))

		ts, err := st.LastSuccessfulSync(context.Background(), "report.xlsx")
		require.NoError(t, err)
		assert.True(t, ts.IsZero())
	})

	t.Run("returns the latest success", func(t *testing.T) {
		st, mock := newMockStore(t)
		want := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT start_time FROM data_sync_jobs").
			WithArgs("report.xlsx").
			WillReturnRows(sqlmock.NewRows([]string{"start_time"}).AddRow(want))

		ts, err := st.LastSuccessfulSync(context.Background(), "report.xlsx")
		require.NoError(t, err)
		assert.Equal(t, want, ts)
	})
}
