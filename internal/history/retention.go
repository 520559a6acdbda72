package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"cinescan/internal/logging"
)

// Pruner is the part of Store the retention job needs.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention deletes entries older than a fixed age on a cron schedule.
type Retention struct {
	store    Pruner
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	now      func() time.Time
}

// NewRetention schedules pruning of entries older than maxAge. schedule is a
// standard five-field cron spec or a descriptor such as "@daily". Nothing runs
// until Start.
func NewRetention(store Pruner, maxAge time.Duration, schedule string, logger *slog.Logger) (*Retention, error) {
	if store == nil {
		return nil, errors.New("history retention: store required")
	}
	if maxAge <= 0 {
		return nil, errors.New("history retention: max age must be positive")
	}
	r := &Retention{
		store:    store,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logging.NewComponentLogger(logger, "history"),
		now:      time.Now,
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("history retention schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *Retention) Start() {
	r.cron.Start()
	r.logger.Info("history retention scheduled",
		logging.Duration("max_age", r.maxAge),
		logging.String("schedule", r.schedule),
	)
}

// Stop halts the schedule and waits for a running prune to finish or ctx to end.
func (r *Retention) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce prunes immediately and returns how many entries were removed.
func (r *Retention) RunOnce(ctx context.Context) int64 {
	cutoff := r.now().Add(-r.maxAge)
	removed, err := r.store.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(r.logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
			logging.String(logging.FieldImpact, "old entries are kept until the next run"),
		)
		return 0
	}
	r.logger.Info("history pruned",
		logging.Int64("removed", removed),
		logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
	)
	return removed
}
