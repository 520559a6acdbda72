package daemon_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"cinescan/internal/daemon"
	"cinescan/internal/testsupport"
)

func waitRunning(t *testing.T, d *daemon.Daemon) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !d.Running() {
		if time.Now().After(deadline) {
			t.Fatal("daemon did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDaemonRunServesAndStops(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, newHandler(t, cfg, &stubRecognizer{}, nil), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	waitRunning(t, d)

	status := d.Status()
	if !status.Running || status.Address == "" || status.LockPath != cfg.LockPath() {
		t.Fatalf("unexpected status %#v", status)
	}
	resp, err := http.Get("http://" + status.Address + "/api/")
	if err != nil {
		t.Fatalf("GET banner: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from live server, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if d.Running() {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestDaemonRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := newHandler(t, cfg, &stubRecognizer{}, nil)
	first, err := daemon.New(cfg, handler, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, handler, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	waitRunning(t, first)

	err = second.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock conflict, got %v", err)
	}

	cancel()
	<-done
}

func TestNewRequiresHandler(t *testing.T) {
	if _, err := daemon.New(testsupport.NewConfig(t), nil, nil); err == nil {
		t.Fatal("expected error without handler")
	}
}
