package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tirepulse/internal/remote"
	"tirepulse/pkg/contracts/domain"
)

// stubProvider fails every download; List returns a fixed file set.
type stubProvider struct {
	files   []remote.RemoteFile
	listErr error
}

func (p *stubProvider) List(ctx context.Context, folderPath string) ([]remote.RemoteFile, error) {
	return p.files, p.listErr
}

func (p *stubProvider) Download(ctx context.Context, remotePath, localDir string) (string, error) {
	return "", errors.New("connection reset")
}

func (p *stubProvider) IsModifiedSince(ctx context.Context, path string, since time.Time) (bool, error) {
	return true, nil
}

func TestSyncFileDownloadFailure(t *testing.T) {
	s := New(Options{
		Provider:    &stubProvider{},
		FileTimeout: time.Second,
		Concurrency: 1,
	})

	f := remote.RemoteFile{
		Name:         "L1_weekly_production_2026-08-24.xlsx",
		Path:         "quality-reports/L1_weekly_production_2026-08-24.xlsx",
		ModifiedTime: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}

	job := s.syncFile(context.Background(), f, FileWeeklyProduction)
	require.NotNil(t, job)

	assert.Equal(t, domain.SyncStatusFailed, job.Status)
	assert.Equal(t, f.Name, job.SourceFile)
	assert.Equal(t, string(FileWeeklyProduction), job.FileType)
	require.Len(t, job.Errors, 1)
	assert.Contains(t, job.Errors[0], "download failed")
	require.NotNil(t, job.EndTime)
	assert.False(t, job.EndTime.Before(job.StartTime))
	assert.NotEmpty(t, job.ID)
}

func TestSyncFileSerializesSamePath(t *testing.T) {
	s := New(Options{Provider: &stubProvider{}, Concurrency: 2})

	lock1 := s.lockFor("a/b.xlsx")
	lock2 := s.lockFor("a/b.xlsx")
	assert.Same(t, lock1, lock2, "same path shares one lock")
	assert.NotSame(t, lock1, s.lockFor("a/c.xlsx"))
}

func TestStageFor(t *testing.T) {
	assert.Equal(t, domain.StageFailed, stageFor(domain.SyncStatusFailed))
	assert.Equal(t, domain.StageSuccess, stageFor(domain.SyncStatusSuccess))
	assert.Equal(t, domain.StageSuccess, stageFor(domain.SyncStatusPartial))
}
