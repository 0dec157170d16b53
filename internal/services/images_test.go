package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/universe/internal/shared"
	mocks "github.com/desertthunder/universe/internal/testing"
)

func TestImageStore(t *testing.T) {
	t.Run("Download", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "static", "images")
		store := NewImageStore(dir, time.Second)

		path, err := store.Download(context.Background(), "Sigur Rós", srv.URL+"/img")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if path != filepath.ToSlash(filepath.Join(dir, "Sigur_Rós.jpg")) {
			t.Errorf("unexpected path %s", path)
		}

		if got := mocks.MustReadFile(t, filepath.FromSlash(path)); got != "jpeg-bytes" {
			t.Errorf("expected image contents, got %q", got)
		}

		mocks.AssertDirExists(t, dir)
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("expected only the image in %s, got %d entries", dir, len(entries))
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		store := NewImageStore(t.TempDir(), 0)
		path, err := store.Download(context.Background(), "Anyone", "")
		if err != nil || path != "" {
			t.Errorf("expected empty path and no error, got %q, %v", path, err)
		}
	})

	t.Run("Unusable name", func(t *testing.T) {
		store := NewImageStore(t.TempDir(), 0)
		if _, err := store.Download(context.Background(), "!!!", "http://example.com/x.jpg"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Not found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		store := NewImageStore(t.TempDir(), 0)
		if _, err := store.Download(context.Background(), "Missing", srv.URL); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Transport error", func(t *testing.T) {
		store := NewImageStore(t.TempDir(), 0)
		store.SetHTTPClient(&http.Client{Transport: mocks.NewMockRoundTripper(nil, errors.New("dial failed"))})

		if _, err := store.Download(context.Background(), "Offline", "http://example.com/x.jpg"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Body read failure", func(t *testing.T) {
		dir := t.TempDir()
		store := NewImageStore(dir, 0)
		store.SetHTTPClient(&http.Client{Transport: mocks.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &mocks.FCloser{},
		}, nil)})

		if _, err := store.Download(context.Background(), "Broken", "http://example.com/x.jpg"); err == nil {
			t.Fatal("expected error reading body")
		}
		if _, err := os.Stat(filepath.FromSlash(store.Path("Broken"))); !os.IsNotExist(err) {
			t.Errorf("expected no image to be written, got %v", err)
		}
	})
	t.Run("Too large", func(t *testing.T) {
		prev := maxImageBytes
		maxImageBytes = 8
		defer func() { maxImageBytes = prev }()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes-past-the-cap"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		store := NewImageStore(dir, 0)
		if _, err := store.Download(context.Background(), "Huge", srv.URL); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if _, err := os.Stat(filepath.FromSlash(store.Path("Huge"))); !os.IsNotExist(err) {
			t.Errorf("expected no image to be written, got %v", err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("expected no leftover files, got %d", len(entries))
		}
	})

	t.Run("Exactly at cap", func(t *testing.T) {
		prev := maxImageBytes
		maxImageBytes = int64(len("jpeg-bytes"))
		defer func() { maxImageBytes = prev }()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		store := NewImageStore(t.TempDir(), 0)
		path, err := store.Download(context.Background(), "Fits", srv.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := mocks.MustReadFile(t, filepath.FromSlash(path)); got != "jpeg-bytes" {
			t.Errorf("expected image contents, got %q", got)
		}
	})
}
