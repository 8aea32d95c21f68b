package enrichment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"
)

const defaultPosterBaseURL = "https://image.tmdb.org/t/p/w500"

type posterOptions struct {
	baseURL string
	client  *http.Client
}

// PosterOption configures a DiskPosterStore.
type PosterOption func(*posterOptions)

// PosterWithBaseURL overrides the image CDN root.
func PosterWithBaseURL(baseURL string) PosterOption {
	return func(o *posterOptions) {
		o.baseURL = baseURL
	}
}

// PosterWithClient overrides the HTTP client used for downloads.
func PosterWithClient(client *http.Client) PosterOption {
	return func(o *posterOptions) {
		o.client = client
	}
}

// DiskPosterStore mirrors posters into dir as <slug>.jpg. Fetch is
// idempotent; a poster already on disk is never re-downloaded, so repeated
// runs only pull art for newly programmed movies.
type DiskPosterStore struct {
	dir     string
	baseURL string
	client  *http.Client
}

func NewDiskPosterStore(dir string, opts ...PosterOption) *DiskPosterStore {
	o := posterOptions{
		baseURL: defaultPosterBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &DiskPosterStore{dir: dir, baseURL: o.baseURL, client: o.client}
}

func (s *DiskPosterStore) Fetch(ctx context.Context, posterPath, slug string) (string, error) {
	if posterPath == "" || slug == "" {
		return "", nil
	}
	filename := slug + ".jpg"
	relative := path.Join("posters", filename)
	target := filepath.Join(s.dir, filename)

	if _, err := os.Stat(target); err == nil {
		return relative, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+posterPath, nil)
	if err != nil {
		return "", fmt.Errorf("create poster request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download poster %s: %w", posterPath, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download poster %s: %s", posterPath, resp.Status)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create poster dir: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read poster %s: %w", posterPath, err)
	}
	if err := os.WriteFile(target, body, 0o600); err != nil {
		return "", fmt.Errorf("write poster %s: %w", target, err)
	}
	slog.Debug("downloaded poster", "slug", slug, "path", posterPath)
	return relative, nil
}
