package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPProvider talks to the plant NAS file gateway, a small HTTP service
// exposing the shared spreadsheet folders as JSON directory listings plus a
// streaming download endpoint.
type HTTPProvider struct {
	client *resty.Client
	logger *slog.Logger
}

// listEntry is the gateway's directory-listing wire format.
type listEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Checksum string    `json:"checksum,omitempty"`
	IsDir    bool      `json:"is_dir"`
}

// NewHTTPProvider creates a provider against the gateway base URL. The
// API key is optional; the gateway on the plant LAN runs without one.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPProvider {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}
	return &HTTPProvider{client: client, logger: logger}
}

// List returns the files under folderPath.
func (p *HTTPProvider) List(ctx context.Context, folderPath string) ([]RemoteFile, error) {
	var entries []listEntry
	res, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("path", folderPath).
		SetResult(&entries).
		Get("/api/files")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folderPath, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, folderPath)
	}
	if res.IsError() {
		return nil, fmt.Errorf("list %s: gateway returned %s", folderPath, res.Status())
	}

	var files []RemoteFile
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		files = append(files, RemoteFile{
			Name:         e.Name,
			Path:         path.Join(folderPath, e.Name),
			Size:         e.Size,
			ModifiedTime: e.Modified,
			Checksum:     e.Checksum,
		})
	}
	return files, nil
}

// Download fetches remotePath into localDir. resty writes to a temp path
// first so an interrupted transfer never leaves a partial file under the
// final name.
func (p *HTTPProvider) Download(ctx context.Context, remotePath, localDir string) (string, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	tmp := path.Join(localDir, path.Base(remotePath)+".part")
	res, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("path", remotePath).
		SetOutput(tmp).
		Get("/api/files/download")
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %s", ErrNotFound, remotePath)
	}
	if res.IsError() {
		os.Remove(tmp)
		return "", fmt.Errorf("download %s: gateway returned %s", remotePath, res.Status())
	}

	final := path.Join(localDir, path.Base(remotePath))
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	p.logger.Debug("downloaded remote file",
		slog.String("path", remotePath),
		slog.String("local", final))
	return final, nil
}

// IsModifiedSince checks the file's modified time via the stat endpoint.
// An absent file reports false, not an error.
func (p *HTTPProvider) IsModifiedSince(ctx context.Context, filePath string, since time.Time) (bool, error) {
	var entry listEntry
	res, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("path", filePath).
		SetResult(&entry).
		Get("/api/files/stat")
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("stat %s: gateway returned %s", filePath, res.Status())
	}
	return entry.Modified.After(since), nil
}
