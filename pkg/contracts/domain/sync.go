package domain

import (
	"time"
)

// SyncJobStatus represents the terminal status of a sync attempt
type SyncJobStatus string

const (
	SyncStatusSuccess SyncJobStatus = "success"
	SyncStatusPartial SyncJobStatus = "partial"
	SyncStatusFailed  SyncJobStatus = "failed"
)

// SyncStage is the pipeline stage a file sync is currently in
type SyncStage string

const (
	StagePending      SyncStage = "pending"
	StageDownloading  SyncStage = "downloading"
	StageParsing      SyncStage = "parsing"
	StageTransforming SyncStage = "transforming"
	StageLoading      SyncStage = "loading"
	StageSuccess      SyncStage = "success"
	StageFailed       SyncStage = "failed"
)

// DataSyncJob is the append-only audit record of one sync attempt for one
// source file. Consumed by operators and monitoring.
type DataSyncJob struct {
	ID               string        `json:"id" db:"id"`
	SourceFile       string        `json:"source_file" db:"source_file" validate:"required"`
	FileType         string        `json:"file_type" db:"file_type"`
	StartTime        time.Time     `json:"start_time" db:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty" db:"end_time"`
	Status           SyncJobStatus `json:"status" db:"status" validate:"required,oneof=success partial failed"`
	RecordsProcessed int           `json:"records_processed" db:"records_processed"`
	RecordsInserted  int           `json:"records_inserted" db:"records_inserted"`
	RecordsUpdated   int           `json:"records_updated" db:"records_updated"`
	RecordsSkipped   int           `json:"records_skipped" db:"records_skipped"`
	RecordsFailed    int           `json:"records_failed" db:"records_failed"`
	Errors           []string      `json:"errors,omitempty" db:"errors"`
	Warnings         []string      `json:"warnings,omitempty" db:"warnings"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}
