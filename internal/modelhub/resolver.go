package modelhub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Resolver downloads a model repository snapshot once per process lifetime
// and caches the resulting local path. Repeat fetches are idempotent: files
// already present in the cache directory are not downloaded again.
type Resolver struct {
	Client   *Client
	RepoID   string
	CacheDir string

	mu  sync.Mutex
	dir string
}

// Snapshot returns the local directory holding the model repository,
// downloading it on first call. Only success is cached: a failed or
// cancelled download is retried on the next call, so a transient hub
// outage does not wedge a long-running process. The mutex makes it safe
// to call from concurrent request handlers.
func (r *Resolver) Snapshot(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dir != "" {
		return r.dir, nil
	}
	dir, err := r.download(ctx)
	if err != nil {
		return "", err
	}
	r.dir = dir
	return dir, nil
}

// Resolve returns the absolute path of relPath inside the snapshot,
// verifying it exists.
func (r *Resolver) Resolve(ctx context.Context, relPath string) (string, error) {
	dir, err := r.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, relPath)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s not found in model snapshot: %w", relPath, err)
	}
	return path, nil
}

func (r *Resolver) download(ctx context.Context) (string, error) {
	files, err := r.Client.ListFiles(ctx, r.RepoID)
	if err != nil {
		return "", fmt.Errorf("failed to list model repo %s: %w", r.RepoID, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("model repo %s has no files", r.RepoID)
	}

	dir := filepath.Join(r.CacheDir, strings.ReplaceAll(r.RepoID, "/", "--"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	for _, f := range files {
		dest := filepath.Join(dir, filepath.FromSlash(f.Path))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := r.Client.DownloadFile(ctx, r.RepoID, f.Path, dest); err != nil {
			return "", err
		}
	}

	return dir, nil
}
