package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"

	apierrors "tirepulse/internal/errors"
	"tirepulse/internal/spc"
	"tirepulse/pkg/contracts/domain"
)

// defaultWindowDays is the report window when the caller omits from/to.
const defaultWindowDays = 30

// qualityHandler serves the analytics read surface.
type qualityHandler struct {
	deps   Deps
	cache  *cache.Cache
	logger *slog.Logger
}

func newQualityHandler(deps Deps, c *cache.Cache, logger *slog.Logger) *qualityHandler {
	return &qualityHandler{
		deps:   deps,
		cache:  c,
		logger: logger.With(slog.String("handler", "quality")),
	}
}

func (h *qualityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/metrics/daily", h.GetDailyMetrics)
	r.Get("/reports/coq", h.GetCOQReport)
	r.Get("/reports/defects", h.GetDefectAnalysis)
	r.Get("/spc/weights/{sku}", h.GetWeightChart)
	r.Get("/operators", h.GetOperatorPerformance)
	r.Get("/alerts", h.GetAlerts)
	r.Get("/lines", h.GetLines)
	return r
}

// GetDailyMetrics returns the daily aggregates for a line (or all lines)
// within the requested window.
func (h *qualityHandler) GetDailyMetrics(w http.ResponseWriter, r *http.Request) {
	from, to, err := windowParams(r)
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("from/to", err.Error()))
		return
	}
	line := r.URL.Query().Get("line")

	metrics, err := h.deps.Store.ListDailyMetrics(r.Context(), line, from, to)
	if err != nil {
		h.serverError(w, r, "failed to list daily metrics", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"from":    from,
		"to":      to,
		"line":    line,
		"metrics": metrics,
	})
}

// GetCOQReport returns the cost-of-quality report for the window, cached
// for the configured TTL.
func (h *qualityHandler) GetCOQReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := windowParams(r)
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("from/to", err.Error()))
		return
	}

	key := cacheKey("coq", "", from, to)
	if v, ok := h.cached(key); ok {
		render.JSON(w, r, v)
		return
	}

	report, err := h.deps.COQ.Report(r.Context(), from, to)
	if err != nil {
		h.serverError(w, r, "failed to compute COQ report", err)
		return
	}
	h.store(key, report)
	render.JSON(w, r, report)
}

// GetDefectAnalysis returns the defect breakdowns and Pareto ranking for
// the window, cached for the configured TTL.
func (h *qualityHandler) GetDefectAnalysis(w http.ResponseWriter, r *http.Request) {
	from, to, err := windowParams(r)
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("from/to", err.Error()))
		return
	}

	key := cacheKey("defects", "", from, to)
	if v, ok := h.cached(key); ok {
		render.JSON(w, r, v)
		return
	}

	analysis, err := h.deps.Defects.Analyze(r.Context(), from, to)
	if err != nil {
		h.serverError(w, r, "failed to analyze defects", err)
		return
	}
	h.store(key, analysis)
	render.JSON(w, r, analysis)
}

// GetWeightChart returns the X-bar/R chart and process capability for a
// tire model's inspected weights.
func (h *qualityHandler) GetWeightChart(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	from, to, err := windowParams(r)
	if err != nil {
		render.Render(w, r, apierrors.InvalidParameter("from/to", err.Error()))
		return
	}

	model, err := h.deps.Store.GetTireModel(r.Context(), sku)
	if err != nil {
		render.Render(w, r, apierrors.NotFoundError("tire model"))
		return
	}

	samples, err := h.deps.Store.WeightSamples(r.Context(), sku, from, to)
	if err != nil {
		h.serverError(w, r, "failed to load weight samples", err)
		return
	}

	measurements := make([]spc.Measurement, 0, len(samples))
	weights := make([]float64, 0, len(samples))
	for _, s := range samples {
		measurements = append(measurements, spc.Measurement{Day: s.Day, Value: s.Weight})
		weights = append(weights, s.Weight)
	}

	render.JSON(w, r, map[string]interface{}{
		"sku":        sku,
		"from":       from,
		"to":         to,
		"samples":    len(samples),
		"chart":      spc.ComputeXBarR(measurements),
		"capability": spc.ProcessCapability(weights, model.MinWeight, model.MaxWeight),
	})
}

// GetOperatorPerformance returns each inspector's trailing-window stats.
func (h *qualityHandler) GetOperatorPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.deps.Metrics.OperatorPerformance(r.Context(), time.Now().UTC())
	if err != nil {
		h.serverError(w, r, "failed to compute operator performance", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"operators": perf})
}

// GetAlerts returns recent alerts, optionally filtered by status.
func (h *qualityHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	alerts, err := h.deps.Store.ListAlerts(r.Context(), domainAlertStatus(status), 100)
	if err != nil {
		h.serverError(w, r, "failed to list alerts", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"alerts": alerts})
}

// GetLines returns the production line catalog.
func (h *qualityHandler) GetLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.deps.Store.ListLines(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to list lines", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"lines": lines})
}

func (h *qualityHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, slog.String("error", err.Error()))
	render.Render(w, r, apierrors.ErrInternalServer)
}

func (h *qualityHandler) cached(key string) (interface{}, bool) {
	if h.cache == nil {
		return nil, false
	}
	return h.cache.Get(key)
}

func (h *qualityHandler) store(key string, v interface{}) {
	if h.cache != nil {
		h.cache.Set(key, v, cache.DefaultExpiration)
	}
}

// domainAlertStatus passes the raw query value through; ListAlerts
// treats an empty status as "all".
func domainAlertStatus(s string) domain.AlertStatus {
	return domain.AlertStatus(s)
}

func cacheKey(report, extra string, from, to time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", report, extra, from.Unix(), to.Unix())
}

// windowParams parses from/to query parameters (RFC 3339 dates), falling
// back to the trailing default window.
func windowParams(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -defaultWindowDays)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("invalid from date %q", v)
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("invalid to date %q", v)
		}
		// Include the whole end day.
		to = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("to precedes from")
	}
	return from, to, nil
}
