// Package daemonrun boots the CineScan API process: logging, history store and
// its retention schedule, the identification service and the daemon lifecycle.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cinescan/internal/config"
	"cinescan/internal/daemon"
	"cinescan/internal/history"
	"cinescan/internal/identification"
	"cinescan/internal/logging"
	"cinescan/internal/media"
	"cinescan/internal/preflight"
	"cinescan/internal/tmdb"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Version     string
}

// Run starts the API server and blocks until SIGINT/SIGTERM or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logPath := cfg.LogFilePath()
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	pidPath := filepath.Join(cfg.Paths.DataDir, "cinescand.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			return err
		}
		defer store.Close()

		if maxAge := cfg.HistoryRetention(); maxAge > 0 {
			retention, err := history.NewRetention(store, maxAge, cfg.History.PruneSchedule, logger)
			if err != nil {
				return fmt.Errorf("schedule history retention: %w", err)
			}
			retention.Start()
			defer func() {
				stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				retention.Stop(stopCtx)
			}()
		}
	}

	svc, err := identification.NewFromConfig(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create identification service: %w", err)
	}
	var hist daemon.HistoryReader
	if store != nil {
		hist = store
	}
	handler := daemon.NewHandler(cfg, svc, hist, logger, opts.Version)

	d, err := daemon.New(cfg, handler, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	go logPreflight(signalCtx, logger, cfg)
	if err := d.Run(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon stopped with error", "daemon_run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the bind address and that no other instance holds the lock"),
		)
		return err
	}
	logger.Info("cinescan daemon shut down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.Bool("vision_key_present", strings.TrimSpace(cfg.Vision.APIKey) != ""),
		logging.Bool("audd_token_present", strings.TrimSpace(cfg.AudD.APIToken) != ""),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.Bool("api_token_set", cfg.Server.APIToken != ""),
		logging.String("bind", cfg.Server.Bind),
	}
	for _, binary := range media.CheckBinaries(media.VideoRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary())) {
		key := strings.ToLower(binary.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", binary.Available),
			logging.String(key+"_binary", binary.Command),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	titles, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	var pinger preflight.Pinger
	if err == nil {
		pinger = titles
	}
	for _, failed := range preflight.Failed(preflight.RunAll(ctx, cfg, pinger)) {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "fix the check before sending recognition requests"),
		)
	}
}
