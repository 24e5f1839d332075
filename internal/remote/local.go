package remote

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LocalProvider serves files from a local directory tree. Used in
// development against manually copied spreadsheets and as the fake
// provider in tests.
type LocalProvider struct {
	root string
}

// NewLocalProvider creates a provider rooted at the given directory.
func NewLocalProvider(root string) *LocalProvider {
	return &LocalProvider{root: root}
}

// List returns the files directly under folderPath, oldest first.
func (p *LocalProvider) List(ctx context.Context, folderPath string) ([]RemoteFile, error) {
	dir := filepath.Join(p.root, filepath.FromSlash(folderPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, folderPath)
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []RemoteFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, RemoteFile{
			Name:         entry.Name(),
			Path:         filepath.ToSlash(filepath.Join(folderPath, entry.Name())),
			Size:         info.Size(),
			ModifiedTime: info.ModTime(),
			Checksum:     fileMD5(filepath.Join(dir, entry.Name())),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModifiedTime.Before(files[j].ModifiedTime)
	})
	return files, nil
}

// Download copies the file into localDir atomically.
func (p *LocalProvider) Download(ctx context.Context, remotePath, localDir string) (string, error) {
	src := filepath.Join(p.root, filepath.FromSlash(remotePath))
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, remotePath)
		}
		return "", fmt.Errorf("failed to open %s: %w", remotePath, err)
	}
	defer f.Close()

	return writeAtomic(localDir, filepath.Base(remotePath), f)
}

// IsModifiedSince compares the file's mtime. An absent file is false, nil.
func (p *LocalProvider) IsModifiedSince(ctx context.Context, path string, since time.Time) (bool, error) {
	info, err := os.Stat(filepath.Join(p.root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime().After(since), nil
}

func fileMD5(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
