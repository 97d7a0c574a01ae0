package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"educorp_backend/internal/config"
)

func TestLocalUploadReportsProgressAndDeletesByURL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Type: "local", LocalPath: dir, PublicBaseURL: "http://cdn.test"}}
	svc := NewStorageService(cfg)

	payload := bytes.Repeat([]byte("x"), 4096)
	var seen []int
	url, err := svc.Upload(ctx, "courses/videos/c1_1_intro.mp4", bytes.NewReader(payload), int64(len(payload)), "video/mp4",
		func(p int) { seen = append(seen, p) })
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://cdn.test/uploads/courses/videos/c1_1_intro.mp4" {
		t.Fatalf("unexpected url %s", url)
	}
	if len(seen) < 2 || seen[0] != 0 || seen[len(seen)-1] != 100 {
		t.Fatalf("unexpected progress sequence %v", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("progress not increasing: %v", seen)
		}
	}

	path := filepath.Join(dir, "courses", "videos", "c1_1_intro.mp4")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if err := svc.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err = %v", err)
	}
	if err := svc.Delete(ctx, "https://elsewhere.test/x.png"); err != nil {
		t.Fatalf("foreign url delete should be a no-op: %v", err)
	}
}
