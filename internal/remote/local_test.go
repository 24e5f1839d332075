package remote

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestLocalProviderList(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "quality-reports")
	require.NoError(t, os.MkdirAll(folder, 0o755))

	base := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	writeFile(t, folder, "newer.xlsx", "bb", base.Add(time.Hour))
	writeFile(t, folder, "older.xlsx", "a", base)

	p := NewLocalProvider(root)
	files, err := p.List(context.Background(), "quality-reports")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "older.xlsx", files[0].Name, "oldest first")
	assert.Equal(t, "newer.xlsx", files[1].Name)
	assert.Equal(t, "quality-reports/older.xlsx", files[0].Path)
	assert.Equal(t, int64(1), files[0].Size)
	assert.NotEmpty(t, files[0].Checksum)
}

func TestLocalProviderListMissingFolder(t *testing.T) {
	p := NewLocalProvider(t.TempDir())
	_, err := p.List(context.Background(), "no-such-folder")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalProviderDownload(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "quality-reports")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	writeFile(t, folder, "report.xlsx", "payload", time.Now())

	downloadDir := t.TempDir()
	p := NewLocalProvider(root)

	local, err := p.Download(context.Background(), "quality-reports/report.xlsx", downloadDir)
	require.NoError(t, err)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(downloadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLocalProviderDownloadMissing(t *testing.T) {
	p := NewLocalProvider(t.TempDir())
	_, err := p.Download(context.Background(), "quality-reports/nope.xlsx", t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalProviderIsModifiedSince(t *testing.T) {
	root := t.TempDir()
	mtime := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	writeFile(t, root, "report.xlsx", "x", mtime)

	p := NewLocalProvider(root)
	ctx := context.Background()

	modified, err := p.IsModifiedSince(ctx, "report.xlsx", mtime.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, modified)

	modified, err = p.IsModifiedSince(ctx, "report.xlsx", mtime.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, modified)

	modified, err = p.IsModifiedSince(ctx, "absent.xlsx", mtime)
	require.NoError(t, err, "absent file is not an error")
	assert.False(t, modified)
}
