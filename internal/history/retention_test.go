package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinescan/internal/history"
	"cinescan/internal/testsupport"
)

func TestRetentionPrunesOldEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, age := range []time.Duration{40 * 24 * time.Hour, 10 * 24 * time.Hour, time.Hour} {
		if _, err := store.Record(ctx, history.Entry{Kind: "search", Query: "x", CreatedAt: now.Add(-age)}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	retention, err := history.NewRetention(store, 30*24*time.Hour, "@daily", nil)
	if err != nil {
		t.Fatalf("NewRetention failed: %v", err)
	}
	retention.SetClockForTest(func() time.Time { return now })

	if removed := retention.RunOnce(ctx); removed != 1 {
		t.Fatalf("expected 1 entry pruned, got %d", removed)
	}
	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries left, got %d", len(entries))
	}
}

type failingPruner struct{ calls int }

func (f *failingPruner) Prune(context.Context, time.Time) (int64, error) {
	f.calls++
	return 0, errors.New("database is locked")
}

func TestRetentionSurvivesPruneErrors(t *testing.T) {
	pruner := &failingPruner{}
	retention, err := history.NewRetention(pruner, time.Hour, "*/5 * * * *", nil)
	if err != nil {
		t.Fatalf("NewRetention failed: %v", err)
	}
	if removed := retention.RunOnce(context.Background()); removed != 0 || pruner.calls != 1 {
		t.Fatalf("expected one failed prune reporting 0, got removed=%d calls=%d", removed, pruner.calls)
	}

	retention.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	retention.Stop(ctx)
}

func TestNewRetentionRejectsBadInput(t *testing.T) {
	if _, err := history.NewRetention(&failingPruner{}, time.Hour, "every tuesday", nil); err == nil {
		t.Fatal("expected error for malformed schedule")
	}
	if _, err := history.NewRetention(&failingPruner{}, 0, "@daily", nil); err == nil {
		t.Fatal("expected error for zero max age")
	}
	if _, err := history.NewRetention(nil, time.Hour, "@daily", nil); err == nil {
		t.Fatal("expected error for missing store")
	}
}
