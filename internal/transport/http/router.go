// Package http is the read-only API surface over the quality store and
// analytics engines, plus the websocket endpoint the dashboard subscribes
// to for sync progress.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tirepulse/internal/coq"
	"tirepulse/internal/defects"
	"tirepulse/internal/metrics"
	"tirepulse/internal/middleware"
	"tirepulse/internal/store"
	"tirepulse/internal/websocket"
)

// Deps are the collaborators the router exposes.
type Deps struct {
	Store   *store.Store
	COQ     *coq.Engine
	Defects *defects.Engine
	Metrics *metrics.Engine
	Hub     *websocket.Hub
	Logger  *slog.Logger

	// CacheTTL bounds staleness of computed reports. Zero disables
	// caching.
	CacheTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the full HTTP router: middleware chain, API routes,
// the Prometheus endpoint and the websocket upgrade.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if deps.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst, logger)
		r.Use(rl.Handler)
	}

	var reportCache *cache.Cache
	if deps.CacheTTL > 0 {
		reportCache = cache.New(deps.CacheTTL, 2*deps.CacheTTL)
	}

	qh := newQualityHandler(deps, reportCache, logger)
	sh := newSyncHandler(deps.Store, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/quality", qh.Routes())
		r.Mount("/sync", sh.Routes())
	})

	r.Get("/healthz", healthHandler(deps.Store))
	r.Handle("/metrics", promhttp.Handler())
	if deps.Hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWS(deps.Hub, w, req)
		})
	}
	return r
}

// healthHandler reports liveness plus database reachability.
func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		render.Status(r, code)
		render.JSON(w, r, map[string]string{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
