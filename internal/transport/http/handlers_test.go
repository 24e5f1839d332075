package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tirepulse/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWindowParams(t *testing.T) {
	t.Run("defaults to the trailing window", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/metrics/daily", nil)
		from, to, err := windowParams(r)
		require.NoError(t, err)
		assert.InDelta(t, float64(defaultWindowDays*24), to.Sub(from).Hours(), 1)
	})

	t.Run("explicit window", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/metrics/daily?from=2026-08-01&to=2026-08-24", nil)
		from, to, err := windowParams(r)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
		assert.Equal(t, time.Date(2026, 8, 24, 23, 59, 59, 0, time.UTC), to, "to covers the whole end day")
	})

	t.Run("malformed from", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/metrics/daily?from=24-08-2026", nil)
		_, _, err := windowParams(r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid from date")
	})

	t.Run("inverted window", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/metrics/daily?from=2026-08-24&to=2026-08-01", nil)
		_, _, err := windowParams(r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "precedes")
	})
}

func TestGetJobsRejectsBadLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := newSyncHandler(store.NewWithDB(db, nil), testLogger())

	for _, limit := range []string{"0", "501", "abc"} {
		t.Run(limit, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/jobs?limit="+limit, nil)
			w := httptest.NewRecorder()
			h.GetJobs(w, r)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet(), "invalid limits never reach the store")
}

func TestHealthz(t *testing.T) {
	t.Run("reachable database", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		mock.ExpectPing()

		w := httptest.NewRecorder()
		healthHandler(store.NewWithDB(db, nil))(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("unreachable database", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		mock.ExpectPing().WillReturnError(assert.AnError)

		w := httptest.NewRecorder()
		healthHandler(store.NewWithDB(db, nil))(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	})
}

func TestCacheKey(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, cacheKey("coq", "", from, to), cacheKey("coq", "", from, to))
	assert.NotEqual(t, cacheKey("coq", "", from, to), cacheKey("defects", "", from, to))
	assert.NotEqual(t, cacheKey("coq", "", from, to), cacheKey("coq", "", from, to.AddDate(0, 0, 1)))
}
