package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveProvider reads the plant's shared Google Drive folder. The sync tool
// on the plant floor uploads the day's spreadsheets there under
// <plant-folder>/<year>/<file-name>.xlsx.
type DriveProvider struct {
	svc    *drive.Service
	rootID string
	logger *slog.Logger

	// folder-path → folder-ID cache; folder layout changes rarely
	folderIDs map[string]string
}

// NewDriveProvider creates a provider using a service-account credentials
// file. rootFolderID is the Drive ID of the plant's top-level folder.
func NewDriveProvider(ctx context.Context, credentialsFile, rootFolderID string, logger *slog.Logger) (*DriveProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveProvider{
		svc:       svc,
		rootID:    rootFolderID,
		logger:    logger,
		folderIDs: make(map[string]string),
	}, nil
}

// List returns the files directly under folderPath (slash-separated,
// relative to the root folder).
func (p *DriveProvider) List(ctx context.Context, folderPath string) ([]RemoteFile, error) {
	folderID, err := p.resolveFolder(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	var files []RemoteFile
	pageToken := ""
	for {
		call := p.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false and mimeType != 'application/vnd.google-apps.folder'", folderID)).
			Fields("nextPageToken, files(id, name, size, modifiedTime, md5Checksum)").
			PageSize(200).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list drive folder %s: %w", folderPath, err)
		}
		for _, f := range res.Files {
			mod, _ := time.Parse(time.RFC3339, f.ModifiedTime)
			files = append(files, RemoteFile{
				Name:         f.Name,
				Path:         folderPath + "/" + f.Name,
				Size:         f.Size,
				ModifiedTime: mod,
				Checksum:     f.Md5Checksum,
			})
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	p.logger.Debug("listed drive folder",
		slog.String("folder", folderPath),
		slog.Int("files", len(files)))
	return files, nil
}

// Download fetches the file at remotePath into localDir atomically.
func (p *DriveProvider) Download(ctx context.Context, remotePath, localDir string) (string, error) {
	file, err := p.find(ctx, remotePath)
	if err != nil {
		return "", err
	}

	res, err := p.svc.Files.Get(file.ID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	defer res.Body.Close()

	return writeAtomic(localDir, file.Name, res.Body)
}

// IsModifiedSince reports whether the file changed after the timestamp.
// An absent file reports false, not an error.
func (p *DriveProvider) IsModifiedSince(ctx context.Context, path string, since time.Time) (bool, error) {
	file, err := p.find(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return file.Modified.After(since), nil
}

type driveFile struct {
	ID       string
	Name     string
	Modified time.Time
}

// find resolves a slash-separated path to a single Drive file.
func (p *DriveProvider) find(ctx context.Context, remotePath string) (*driveFile, error) {
	dir, name := splitRemotePath(remotePath)
	folderID, err := p.resolveFolder(ctx, dir)
	if err != nil {
		return nil, err
	}

	res, err := p.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", folderID, escapeDriveQuery(name))).
		Fields("files(id, name, modifiedTime)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", remotePath, err)
	}
	if len(res.Files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, remotePath)
	}

	mod, _ := time.Parse(time.RFC3339, res.Files[0].ModifiedTime)
	return &driveFile{ID: res.Files[0].Id, Name: res.Files[0].Name, Modified: mod}, nil
}

// resolveFolder walks the slash-separated folder path from the root folder,
// caching IDs as it goes.
func (p *DriveProvider) resolveFolder(ctx context.Context, folderPath string) (string, error) {
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return p.rootID, nil
	}
	if id, ok := p.folderIDs[folderPath]; ok {
		return id, nil
	}

	parentID := p.rootID
	for _, part := range strings.Split(folderPath, "/") {
		res, err := p.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = 'application/vnd.google-apps.folder' and trashed = false", parentID, escapeDriveQuery(part))).
			Fields("files(id)").
			PageSize(1).
			Context(ctx).
			Do()
		if err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 404 {
				return "", fmt.Errorf("%w: folder %s", ErrNotFound, folderPath)
			}
			return "", fmt.Errorf("failed to resolve folder %s: %w", folderPath, err)
		}
		if len(res.Files) == 0 {
			return "", fmt.Errorf("%w: folder %s", ErrNotFound, folderPath)
		}
		parentID = res.Files[0].Id
	}

	p.folderIDs[folderPath] = parentID
	return parentID, nil
}

func splitRemotePath(remotePath string) (dir, name string) {
	remotePath = strings.Trim(remotePath, "/")
	idx := strings.LastIndex(remotePath, "/")
	if idx < 0 {
		return "", remotePath
	}
	return remotePath[:idx], remotePath[idx+1:]
}

func escapeDriveQuery(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
