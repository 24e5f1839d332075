// plantsync is the quality data sync service: it pulls the plant's
// shop-floor spreadsheets from the remote store on a schedule, loads them
// into the quality database, recomputes the daily metrics, and serves the
// analytics API and dashboard websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tirepulse/internal/config"
	"tirepulse/internal/coq"
	"tirepulse/internal/defects"
	"tirepulse/internal/infrastructure"
	"tirepulse/internal/metrics"
	"tirepulse/internal/remote"
	"tirepulse/internal/store"
	"tirepulse/internal/syncer"
	transporthttp "tirepulse/internal/transport/http"
	"tirepulse/internal/websocket"
	"tirepulse/pkg/contracts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yaml")
	syncOnce := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	logger.Info("starting", slog.String("version", contracts.GetVersionString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := infrastructure.InitializeTracing(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	st, err := store.Open(ctx, cfg.Database.DSN, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	provider, err := buildProvider(ctx, cfg.Remote, logger)
	if err != nil {
		return fmt.Errorf("failed to build remote provider: %w", err)
	}

	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	sync := syncer.New(syncer.Options{
		Provider:            provider,
		Store:               st,
		FolderPath:          cfg.Remote.PlantFolder,
		DownloadDir:         cfg.Remote.DownloadDir,
		FileTimeout:         cfg.Sync.FileTimeout,
		Concurrency:         cfg.Sync.Concurrency,
		BRRateHighThreshold: cfg.Quality.BRRateHighThreshold,
		Hub:                 hub,
		Tracer:              providers.Tracer,
		Logger:              logger,
	})

	if *syncOnce {
		summary, err := sync.SyncAll(ctx)
		if err != nil {
			return err
		}
		logger.Info("single sync complete",
			slog.Int("files", summary.Files),
			slog.Int("failed", summary.Failed))
		return nil
	}

	scheduler := syncer.NewScheduler(sync, cfg.Sync.Interval, logger)
	go scheduler.Start(ctx)
	defer scheduler.Stop()

	router := transporthttp.NewRouter(transporthttp.Deps{
		Store:          st,
		COQ:            coq.NewEngine(st, cfg.Quality.CostRates, logger),
		Defects:        defects.NewEngine(st, logger),
		Metrics:        metrics.NewEngine(st, logger),
		Hub:            hub,
		Logger:         logger,
		CacheTTL:       cfg.Quality.ReportCacheTTL,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

// buildProvider picks the remote provider implementation from config.
func buildProvider(ctx context.Context, cfg config.RemoteConfig, logger *slog.Logger) (remote.Provider, error) {
	switch cfg.Kind {
	case "drive":
		return remote.NewDriveProvider(ctx, cfg.CredentialsFile, cfg.RootFolderID, logger)
	case "http":
		return remote.NewHTTPProvider(cfg.BaseURL, cfg.APIKey, cfg.Timeout, logger), nil
	default:
		return remote.NewLocalProvider(cfg.LocalDir), nil
	}
}
