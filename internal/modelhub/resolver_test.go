package modelhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHubMux handles fake model repository requests for the given files.
func newHubMux(t *testing.T, repoID string, files map[string]string, hits *atomic.Int64) *http.ServeMux {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/models/"+repoID, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var siblings []RepoFile
		for name, content := range files {
			siblings = append(siblings, RepoFile{Path: name, Size: int64(len(content))})
		}
		json.NewEncoder(w).Encode(map[string]any{"siblings": siblings})
	})
	mux.HandleFunc("GET /"+repoID+"/resolve/main/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		name := filepath.Base(r.URL.Path)
		content, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(content))
	})

	return mux
}

// newHubServer serves a fake model repository with the given files.
func newHubServer(t *testing.T, repoID string, files map[string]string, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(newHubMux(t, repoID, files, hits))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	c := NewClient("unused")
	c.baseURL = baseURL
	return c
}

func TestResolver_DownloadsSnapshotOnce(t *testing.T) {
	var hits atomic.Int64
	files := map[string]string{
		"analyze.py":  "print('hi')",
		"weights.bin": "\x00\x01",
	}
	srv := newHubServer(t, "acme/mpie", files, &hits)

	r := &Resolver{
		Client:   newTestClient(srv.URL),
		RepoID:   "acme/mpie",
		CacheDir: t.TempDir(),
	}

	ctx := context.Background()
	dir, err := r.Snapshot(ctx)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "analyze.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(content))

	// Second call must hit the cached result, not the hub.
	before := hits.Load()
	again, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
	assert.Equal(t, before, hits.Load())
}

func TestResolver_RetriesAfterTransientFailure(t *testing.T) {
	var hits atomic.Int64
	files := map[string]string{"analyze.py": "print('hi')"}
	mux := newHubMux(t, "acme/mpie", files, &hits)

	// The hub fails the first request and recovers afterwards.
	var failedOnce atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if failedOnce.CompareAndSwap(false, true) {
			http.Error(w, "temporarily offline", http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)

	r := &Resolver{Client: newTestClient(srv.URL), RepoID: "acme/mpie", CacheDir: t.TempDir()}

	ctx := context.Background()
	_, err := r.Snapshot(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	// The failure must not be cached: the next call re-contacts the hub
	// and succeeds.
	dir, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "analyze.py"))

	// Success is cached.
	before := hits.Load()
	again, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, again)
	assert.Equal(t, before, hits.Load())
}

func TestResolver_SkipsFilesAlreadyPresent(t *testing.T) {
	var hits atomic.Int64
	files := map[string]string{"analyze.py": "print('hi')"}
	srv := newHubServer(t, "acme/mpie", files, &hits)

	cache := t.TempDir()
	snapshotDir := filepath.Join(cache, "acme--mpie")
	require.NoError(t, os.MkdirAll(snapshotDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(snapshotDir, "analyze.py"), []byte("local copy"), 0o644))

	r := &Resolver{Client: newTestClient(srv.URL), RepoID: "acme/mpie", CacheDir: cache}

	dir, err := r.Snapshot(context.Background())
	require.NoError(t, err)

	// Only the listing request; the existing file was not re-downloaded.
	assert.Equal(t, int64(1), hits.Load())
	content, err := os.ReadFile(filepath.Join(dir, "analyze.py"))
	require.NoError(t, err)
	assert.Equal(t, "local copy", string(content))
}

func TestResolver_Resolve(t *testing.T) {
	var hits atomic.Int64
	srv := newHubServer(t, "acme/mpie", map[string]string{"analyze.py": "print('hi')"}, &hits)

	r := &Resolver{Client: newTestClient(srv.URL), RepoID: "acme/mpie", CacheDir: t.TempDir()}

	path, err := r.Resolve(context.Background(), "analyze.py")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = r.Resolve(context.Background(), "missing.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.py")
}

func TestResolver_EmptyRepo(t *testing.T) {
	var hits atomic.Int64
	srv := newHubServer(t, "acme/empty", map[string]string{}, &hits)

	r := &Resolver{Client: newTestClient(srv.URL), RepoID: "acme/empty", CacheDir: t.TempDir()}

	_, err := r.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files")
}

func TestClient_ListFilesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestClient(srv.URL).ListFiles(context.Background(), "acme/mpie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
