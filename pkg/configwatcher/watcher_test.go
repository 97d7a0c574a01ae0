package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"educorp_backend/internal/config"
	"educorp_backend/pkg/logger"
)

func writeConfig(t *testing.T, dir string, deleteProgress bool) {
	t.Helper()
	body := fmt.Sprintf(`store:
  type: memory
storage:
  type: local
  local_path: %s
enrollment:
  delete_progress_on_unenroll: %t
`, filepath.Join(dir, "uploads"), deleteProgress)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	logger.InitNop()
	dir := t.TempDir()
	writeConfig(t, dir, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, filepath.Join(dir, "config.yaml"), func(cfg *config.Config) {
			reloaded <- cfg
		})
	}()

	// The watcher may not be registered yet, so keep rewriting slower than the debounce.
	deadline := time.After(8 * time.Second)
	ticker := time.NewTicker(debounce + 500*time.Millisecond)
	defer ticker.Stop()
	writeConfig(t, dir, true)
	for {
		select {
		case cfg := <-reloaded:
			if !cfg.Enrollment.DeleteProgressOnUnenroll {
				t.Fatalf("reloaded config lost the new enrollment setting")
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("WatchConfig returned %v", err)
			}
			return
		case <-ticker.C:
			writeConfig(t, dir, true)
		case <-deadline:
			t.Fatalf("config was not reloaded")
		}
	}
}
