package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cinescan/internal/testsupport"
)

func TestRunStopsWhenContextEnds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := Run(ctx, cfg, Options{LogLevel: "error", Version: "test"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, "cinescand.pid")); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.HistoryPath()); err != nil {
		t.Fatalf("expected history database created: %v", err)
	}
}

func TestRunSchedulesHistoryRetention(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.History.RetentionDays = 30
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := Run(ctx, cfg, Options{LogLevel: "info", Version: "test"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	content, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "history retention scheduled") {
		t.Fatalf("expected retention schedule in log, got %s", content)
	}
}

func TestRunRejectsBadPruneSchedule(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.History.RetentionDays = 7
	cfg.History.PruneSchedule = "whenever"

	err := Run(context.Background(), cfg, Options{LogLevel: "error"})
	if err == nil || !strings.Contains(err.Error(), "schedule history retention") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	err := Run(context.Background(), nil, Options{})
	if err == nil || !strings.Contains(err.Error(), "config is required") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		t.Fatal("expected pid contents")
	}
}
