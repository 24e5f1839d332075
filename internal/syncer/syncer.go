// Package syncer orchestrates the sync pipeline: it lists the plant's
// remote spreadsheets, routes each changed file through download, parse,
// transform and load, records an audit job per attempt, and triggers the
// downstream metric recomputation and anomaly checks.
//
// Files are isolated from each other: one corrupt workbook fails its own
// job and never stops the rest of the run.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"tirepulse/internal/alerts"
	"tirepulse/internal/anomaly"
	"tirepulse/internal/loader"
	"tirepulse/internal/metrics"
	"tirepulse/internal/parsers"
	"tirepulse/internal/remote"
	"tirepulse/internal/store"
	"tirepulse/internal/transform"
	"tirepulse/internal/websocket"
	"tirepulse/pkg/contracts/domain"
)

// anomalyWindowDays is the trailing window fed to the anomaly detector.
const anomalyWindowDays = 30

// Options configures a Syncer. Hub and Tracer are optional.
type Options struct {
	Provider    remote.Provider
	Store       *store.Store
	FolderPath  string
	DownloadDir string
	FileTimeout time.Duration
	Concurrency int

	// BRRateHighThreshold escalates spike anomalies past it to high
	// severity.
	BRRateHighThreshold float64

	Hub    *websocket.Hub
	Tracer trace.Tracer
	Logger *slog.Logger
}

// Syncer runs the file sync pipeline.
type Syncer struct {
	provider    remote.Provider
	store       *store.Store
	loader      *loader.Loader
	metrics     *metrics.Engine
	alerts      *alerts.Producer
	detector    *anomaly.Detector
	transformer *transform.Transformer

	weeklyParser  *parsers.WeeklyProductionParser
	defectParser  *parsers.DefectMatrixParser
	downParser    *parsers.DownTimeParser
	meetingParser *parsers.DailyMeetingParser

	folderPath  string
	downloadDir string
	fileTimeout time.Duration
	concurrency int64

	hub    *websocket.Hub
	tracer trace.Tracer
	logger *slog.Logger

	// fileLocks serializes concurrent syncs of the same remote path.
	fileLocks sync.Map
}

// New creates a syncer wired to the given store and provider.
func New(opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "syncer"))

	concurrency := int64(opts.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}
	fileTimeout := opts.FileTimeout
	if fileTimeout <= 0 {
		fileTimeout = 5 * time.Minute
	}

	return &Syncer{
		provider:      opts.Provider,
		store:         opts.Store,
		loader:        loader.New(opts.Store, logger),
		metrics:       metrics.NewEngine(opts.Store, logger),
		alerts:        alerts.NewProducer(opts.Store, logger),
		detector:      anomaly.NewDetector(opts.BRRateHighThreshold, logger),
		transformer:   transform.NewTransformer(logger),
		weeklyParser:  parsers.NewWeeklyProductionParser(logger),
		defectParser:  parsers.NewDefectMatrixParser(logger),
		downParser:    parsers.NewDownTimeParser(logger),
		meetingParser: parsers.NewDailyMeetingParser(logger),
		folderPath:    opts.FolderPath,
		downloadDir:   opts.DownloadDir,
		fileTimeout:   fileTimeout,
		concurrency:   concurrency,
		hub:           opts.Hub,
		tracer:        opts.Tracer,
		logger:        logger,
	}
}

// RunSummary reports one SyncAll invocation.
type RunSummary struct {
	Started   time.Time            `json:"started"`
	Finished  time.Time            `json:"finished"`
	Files     int                  `json:"files"`
	Succeeded int                  `json:"succeeded"`
	Partial   int                  `json:"partial"`
	Failed    int                  `json:"failed"`
	Skipped   int                  `json:"skipped"`
	Jobs      []domain.DataSyncJob `json:"jobs,omitempty"`
}

// SyncAll lists the remote folder and processes every file that changed
// since its last successful sync. Files run concurrently up to the
// configured limit; a failing file never aborts the others. After the
// loads finish, the daily metrics are recomputed for the touched keys and
// anomaly and target checks run against the refreshed series.
func (s *Syncer) SyncAll(ctx context.Context) (*RunSummary, error) {
	started := time.Now().UTC()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "sync.all")
		defer span.End()
	}

	files, err := s.provider.List(ctx, s.folderPath)
	if err != nil {
		syncRunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to list remote folder %s: %w", s.folderPath, err)
	}

	summary := &RunSummary{Started: started, Files: len(files)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(s.concurrency)

	for _, f := range files {
		f := f
		fileType := ClassifyFile(f.Name)
		if fileType == FileUnknown {
			s.logger.Warn("skipping unrecognized file", slog.String("file", f.Name))
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		lastSync, err := s.store.LastSuccessfulSync(ctx, f.Name)
		if err != nil {
			return nil, err
		}
		if !lastSync.IsZero() && !f.ModifiedTime.After(lastSync) {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			job := s.syncFile(gctx, f, fileType)

			mu.Lock()
			summary.Jobs = append(summary.Jobs, *job)
			switch job.Status {
			case domain.SyncStatusSuccess:
				summary.Succeeded++
			case domain.SyncStatusPartial:
				summary.Partial++
			default:
				summary.Failed++
			}
			mu.Unlock()

			if err := s.store.InsertSyncJob(gctx, job); err != nil {
				s.logger.Error("failed to record sync job",
					slog.String("file", f.Name),
					slog.String("error", err.Error()))
			}
			if job.Status == domain.SyncStatusFailed {
				if err := s.alerts.SyncFailure(gctx, f.Name, job.Errors); err != nil {
					s.logger.Error("failed to record sync failure alert",
						slog.String("file", f.Name),
						slog.String("error", err.Error()))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		syncRunsTotal.WithLabelValues("failed").Inc()
		return summary, err
	}

	if err := s.postProcess(ctx, started); err != nil {
		s.logger.Error("post-sync analytics failed", slog.String("error", err.Error()))
	}

	summary.Finished = time.Now().UTC()
	status := "success"
	if summary.Failed > 0 {
		status = "partial"
	}
	syncRunsTotal.WithLabelValues(status).Inc()
	s.logger.Info("sync run complete",
		slog.Int("files", summary.Files),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("partial", summary.Partial),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary, nil
}

// syncFile runs one file through the stage pipeline and returns its audit
// job. Never returns an error: failures are captured on the job.
func (s *Syncer) syncFile(ctx context.Context, f remote.RemoteFile, fileType FileType) *domain.DataSyncJob {
	lock := s.lockFor(f.Path)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.fileTimeout)
	defer cancel()

	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "sync.file",
			trace.WithAttributes(
				attribute.String("file.name", f.Name),
				attribute.String("file.type", string(fileType)),
			))
		defer span.End()
	}

	started := time.Now().UTC()
	job := &domain.DataSyncJob{
		ID:         uuid.New().String(),
		SourceFile: f.Name,
		FileType:   string(fileType),
		StartTime:  started,
		Status:     domain.SyncStatusFailed,
	}
	defer func() {
		end := time.Now().UTC()
		job.EndTime = &end
		filesSyncedTotal.WithLabelValues(string(fileType), string(job.Status)).Inc()
		fileDuration.WithLabelValues(string(fileType)).Observe(end.Sub(started).Seconds())
	}()

	s.setStage(job, domain.StageDownloading)
	localPath, err := s.provider.Download(ctx, f.Path, s.downloadDir)
	if err != nil {
		s.failJob(job, fmt.Errorf("download failed: %w", err))
		return job
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		s.failJob(job, fmt.Errorf("failed to read downloaded file: %w", err))
		return job
	}

	res, warnings, err := s.processFile(ctx, job, f, fileType, data)
	if err != nil {
		s.failJob(job, err)
		return job
	}

	job.RecordsProcessed = res.Processed
	job.RecordsInserted = res.Inserted
	job.RecordsUpdated = res.Updated
	job.RecordsSkipped = res.Skipped
	job.RecordsFailed = res.Failed
	job.Warnings = append(warnings, res.Warnings...)

	recordsTotal.WithLabelValues("inserted").Add(float64(res.Inserted))
	recordsTotal.WithLabelValues("updated").Add(float64(res.Updated))
	recordsTotal.WithLabelValues("skipped").Add(float64(res.Skipped))
	recordsTotal.WithLabelValues("failed").Add(float64(res.Failed))

	if res.Failed > 0 {
		job.Status = domain.SyncStatusPartial
	} else {
		job.Status = domain.SyncStatusSuccess
	}
	s.setStage(job, stageFor(job.Status))

	s.logger.Info("file synced",
		slog.String("file", f.Name),
		slog.String("type", string(fileType)),
		slog.String("status", string(job.Status)),
		slog.Int("processed", job.RecordsProcessed),
		slog.Int("inserted", job.RecordsInserted),
		slog.Int("failed", job.RecordsFailed))
	return job
}

// processFile routes parsed rows through the matching transform and load.
// Returns the load result plus parse and transform warnings as strings.
func (s *Syncer) processFile(ctx context.Context, job *domain.DataSyncJob, f remote.RemoteFile, fileType FileType, data []byte) (*loader.LoadResult, []string, error) {
	var warnings []string

	switch fileType {
	case FileWeeklyProduction:
		s.setStage(job, domain.StageParsing)
		rows, parseWarns, err := s.weeklyParser.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parse failed: %w", err)
		}
		warnings = appendWarnings(warnings, parseWarns, nil)

		line := lineCodeFromName(f.Name)
		if line == "" {
			return nil, nil, fmt.Errorf("cannot determine production line from file name %q", f.Name)
		}

		s.setStage(job, domain.StageTransforming)
		weekStart := weekStartOf(dateFromName(f.Name, f.ModifiedTime))
		batches, tWarns := s.transformer.WeeklyProduction(rows, line, weekStart)
		warnings = appendWarnings(warnings, nil, tWarns)

		s.setStage(job, domain.StageLoading)
		res, err := s.loader.LoadBatches(ctx, batches)
		return res, warnings, err

	case FileDefectMatrix:
		s.setStage(job, domain.StageParsing)
		rows, parseWarns, err := s.defectParser.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parse failed: %w", err)
		}
		warnings = appendWarnings(warnings, parseWarns, nil)

		s.setStage(job, domain.StageTransforming)
		period := monthStartOf(dateFromName(f.Name, f.ModifiedTime))
		types, tallies, tWarns := s.transformer.DefectMatrix(rows, period)
		warnings = appendWarnings(warnings, nil, tWarns)

		s.setStage(job, domain.StageLoading)
		res, err := s.loader.LoadDefectData(ctx, types, tallies)
		return res, warnings, err

	case FileDownTime:
		s.setStage(job, domain.StageParsing)
		rows, parseWarns, err := s.downParser.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parse failed: %w", err)
		}
		warnings = appendWarnings(warnings, parseWarns, nil)

		line := lineCodeFromName(f.Name)
		if line == "" {
			return nil, nil, fmt.Errorf("cannot determine production line from file name %q", f.Name)
		}

		s.setStage(job, domain.StageTransforming)
		day := dateFromName(f.Name, f.ModifiedTime)
		events, tWarns := s.transformer.DownTime(rows, line, day)
		warnings = appendWarnings(warnings, nil, tWarns)

		s.setStage(job, domain.StageLoading)
		res, err := s.loader.LoadDownTime(ctx, events)
		return res, warnings, err

	case FileDailyMeeting:
		s.setStage(job, domain.StageParsing)
		records, parseWarns, err := s.meetingParser.Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parse failed: %w", err)
		}
		warnings = appendWarnings(warnings, parseWarns, nil)

		s.setStage(job, domain.StageTransforming)
		summaries, tWarns := s.transformer.DailyMeeting(records)
		warnings = appendWarnings(warnings, nil, tWarns)

		s.setStage(job, domain.StageLoading)
		res, err := s.loader.LoadMeetingSummaries(ctx, summaries)
		return res, warnings, err
	}

	return nil, nil, fmt.Errorf("no pipeline for file type %q", fileType)
}

// postProcess recomputes the daily aggregates touched by this run, then
// evaluates anomaly and target rules against the refreshed series.
func (s *Syncer) postProcess(ctx context.Context, runStart time.Time) error {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "sync.post_process")
		defer span.End()
	}

	if _, err := s.metrics.RecomputeDirty(ctx, runStart); err != nil {
		return fmt.Errorf("metric recomputation failed: %w", err)
	}
	if _, err := s.metrics.OperatorPerformance(ctx, time.Now().UTC()); err != nil {
		return fmt.Errorf("operator performance update failed: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if _, err := s.alerts.TargetBreaches(ctx, today); err != nil {
		return fmt.Errorf("target breach check failed: %w", err)
	}
	return s.detectAnomalies(ctx, today)
}

// detectAnomalies evaluates each line's trailing B+R rate series and
// persists alerts for what fires.
func (s *Syncer) detectAnomalies(ctx context.Context, today time.Time) error {
	lines, err := s.store.ListLines(ctx)
	if err != nil {
		return err
	}
	from := today.AddDate(0, 0, -anomalyWindowDays)

	for _, line := range lines {
		dayMetrics, err := s.store.ListDailyMetrics(ctx, line.Code, from, today)
		if err != nil {
			return err
		}
		series := make([]float64, 0, len(dayMetrics))
		for _, m := range dayMetrics {
			series = append(series, m.BRRate)
		}

		found := s.detector.Evaluate("br_rate", line.Code, series)
		if len(found) == 0 {
			continue
		}
		if _, err := s.alerts.FromAnomalies(ctx, found); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) setStage(job *domain.DataSyncJob, stage domain.SyncStage) {
	if s.hub != nil {
		s.hub.BroadcastStage(job.ID, job.SourceFile, stage)
	}
}

func (s *Syncer) failJob(job *domain.DataSyncJob, err error) {
	job.Status = domain.SyncStatusFailed
	job.Errors = append(job.Errors, err.Error())
	s.setStage(job, domain.StageFailed)
	s.logger.Error("file sync failed",
		slog.String("file", job.SourceFile),
		slog.String("error", err.Error()))
}

func (s *Syncer) lockFor(path string) *sync.Mutex {
	v, _ := s.fileLocks.LoadOrStore(path, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func stageFor(status domain.SyncJobStatus) domain.SyncStage {
	if status == domain.SyncStatusFailed {
		return domain.StageFailed
	}
	return domain.StageSuccess
}

func appendWarnings(dst []string, parseWarns []parsers.Warning, transformWarns []transform.Warning) []string {
	for _, w := range parseWarns {
		dst = append(dst, w.String())
	}
	for _, w := range transformWarns {
		dst = append(dst, w.String())
	}
	return dst
}
