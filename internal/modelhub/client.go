// Package modelhub resolves a named model repository to a local directory
// containing the analysis agent.
package modelhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Client handles model hub API interactions.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new hub client. The token is optional; public model
// repositories need none.
func NewClient(token string) *Client {
	if token == "" {
		token = os.Getenv("MPIE_HUB_TOKEN")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{},
		baseURL:    "https://huggingface.co",
	}
}

// RepoFile is one file listed in a model repository.
type RepoFile struct {
	Path string `json:"rfilename"`
	Size int64  `json:"size"`
}

// ListFiles fetches the file listing for a model repository.
func (c *Client) ListFiles(ctx context.Context, repoID string) ([]RepoFile, error) {
	url := fmt.Sprintf("%s/api/models/%s", c.baseURL, repoID)

	var result struct {
		Siblings []RepoFile `json:"siblings"`
	}

	if err := c.doRequest(ctx, url, &result); err != nil {
		return nil, err
	}

	return result.Siblings, nil
}

// DownloadFile streams one repository file to dest, creating parent
// directories as needed.
func (c *Client) DownloadFile(ctx context.Context, repoID, path, dest string) error {
	url := fmt.Sprintf("%s/%s/resolve/main/%s", c.baseURL, repoID, path)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", path, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return f.Close()
}

func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub request failed: %s: %s", url, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
