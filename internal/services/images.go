package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/universe/internal/shared"
)

// maxImageBytes caps a single downloaded image.
var maxImageBytes int64 = 10 << 20

// ImageStore implements [ImageFetcher] by saving images as "<dir>/<safe name>.jpg".
type ImageStore struct {
	dir        string
	httpClient *http.Client
	timeout    time.Duration
}

// NewImageStore creates a store writing into dir. A zero timeout means no per-image deadline.
func NewImageStore(dir string, timeout time.Duration) *ImageStore {
	return &ImageStore{dir: dir, httpClient: http.DefaultClient, timeout: timeout}
}

// SetHTTPClient replaces the client used for downloads.
func (s *ImageStore) SetHTTPClient(c *http.Client) {
	s.httpClient = c
}

// Path returns the slash-separated path an image for name is stored at.
func (s *ImageStore) Path(name string) string {
	return filepath.ToSlash(filepath.Join(s.dir, shared.SafeFilename(name)+".jpg"))
}

// Download fetches imageURL and writes it to [ImageStore.Path].
//
// An empty imageURL yields an empty path and no error.
func (s *ImageStore) Download(ctx context.Context, name, imageURL string) (string, error) {
	if imageURL == "" {
		return "", nil
	}
	if shared.SafeFilename(name) == "" {
		return "", fmt.Errorf("%w: no usable filename for %q", shared.ErrInvalidInput, name)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: image for %s: %v", shared.ErrAPIRequest, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: image for %s: status %d", shared.ErrAPIRequest, name, resp.StatusCode)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	target := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write image for %s: %w", name, err)
	}
	if n > maxImageBytes {
		tmp.Close()
		return "", fmt.Errorf("%w: image for %s exceeds %d bytes", shared.ErrAPIRequest, name, maxImageBytes)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write image for %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.FromSlash(target)); err != nil {
		return "", fmt.Errorf("failed to store image for %s: %w", name, err)
	}

	return target, nil
}
