// Package remote abstracts the file store the plant uploads its shop-floor
// spreadsheets to. The sync orchestrator only ever talks to the Provider
// interface, so the pipeline is testable without reaching a real store.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned when a remote path does not exist.
var ErrNotFound = errors.New("remote file not found")

// RemoteFile describes one file in the remote store.
type RemoteFile struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
	Checksum     string    `json:"checksum,omitempty"`
}

// Provider lists and downloads dated spreadsheet files from a remote store.
//
// Download is atomic from the caller's perspective: either the returned
// local file is complete, or an error is returned and no partial file is
// left behind under the final name.
type Provider interface {
	List(ctx context.Context, folderPath string) ([]RemoteFile, error)
	Download(ctx context.Context, remotePath, localDir string) (string, error)

	// IsModifiedSince reports whether the file at path was modified after
	// the given timestamp. An absent file reports false, not an error.
	IsModifiedSince(ctx context.Context, path string, since time.Time) (bool, error)
}

// writeAtomic streams r into localDir/name via a temp file and rename, so
// a failed download never leaves a partial file under the final name.
func writeAtomic(localDir, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(localDir, name+".part-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download interrupted: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize temp file: %w", err)
	}

	final := filepath.Join(localDir, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}
	return final, nil
}
