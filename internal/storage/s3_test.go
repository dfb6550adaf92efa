package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestS3Storage(t *testing.T, endpoint string) *S3Storage {
	t.Helper()

	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	storage, err := NewS3Storage(filepath.Join(t.TempDir(), "static"), cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	return storage
}

func TestNewS3Storage(t *testing.T) {
	storage := newTestS3Storage(t, "http://localhost:4566")

	if storage.bucket != "test-bucket" {
		t.Errorf("bucket = %v, want %v", storage.bucket, "test-bucket")
	}
	if storage.region != "us-east-1" {
		t.Errorf("region = %v, want %v", storage.region, "us-east-1")
	}
}

func TestS3Storage_InheritsLocalStorage(t *testing.T) {
	storage := newTestS3Storage(t, "http://localhost:4566")
	ctx := context.Background()

	path, err := storage.Save(ctx, t.TempDir(), "frame_0.jpg", bytes.NewReader([]byte("test data")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "test data" {
		t.Errorf("got %q, want %q", string(content), "test data")
	}

	if err := storage.Cleanup(ctx, []string{path}); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}
}

func TestS3Storage_UploadToS3_MockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}

		if !strings.HasSuffix(r.URL.Path, "/test-bucket/frames/job-1/frame_0.jpg") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		if ct := r.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("unexpected content type: %s", ct)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != "jpeg bytes" {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	storage := newTestS3Storage(t, server.URL)

	url, err := storage.UploadToS3(context.Background(), "frames/job-1/frame_0.jpg", bytes.NewReader([]byte("jpeg bytes")))
	if err != nil {
		t.Fatalf("UploadToS3() error = %v", err)
	}

	expectedURL := server.URL + "/test-bucket/frames/job-1/frame_0.jpg"
	if url != expectedURL {
		t.Errorf("url = %v, want %v", url, expectedURL)
	}
}

func TestS3Storage_ObjectURL_AWS(t *testing.T) {
	storage := newTestS3Storage(t, "")

	got := storage.objectURL("frames/frame_0.jpg")
	want := "https://test-bucket.s3.us-east-1.amazonaws.com/frames/frame_0.jpg"
	if got != want {
		t.Errorf("objectURL() = %v, want %v", got, want)
	}
}
