package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "tirepulse/internal/errors"
	"tirepulse/internal/store"
)

// syncHandler exposes the sync audit log.
type syncHandler struct {
	store  *store.Store
	logger *slog.Logger
}

func newSyncHandler(st *store.Store, logger *slog.Logger) *syncHandler {
	return &syncHandler{
		store:  st,
		logger: logger.With(slog.String("handler", "sync")),
	}
}

func (h *syncHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/jobs", h.GetJobs)
	return r
}

// GetJobs returns the most recent sync attempts, newest first.
func (h *syncHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			render.Render(w, r, apierrors.InvalidParameter("limit", "must be an integer between 1 and 500"))
			return
		}
		limit = n
	}

	jobs, err := h.store.ListSyncJobs(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list sync jobs", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, map[string]interface{}{"jobs": jobs})
}
