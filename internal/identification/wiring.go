package identification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cinescan/internal/audd"
	"cinescan/internal/config"
	"cinescan/internal/history"
	"cinescan/internal/media"
	"cinescan/internal/recognition"
	"cinescan/internal/titlesearch"
	"cinescan/internal/tmdb"
	"cinescan/internal/vision"
)

// NewFromConfig builds the production service. TMDB is required; Vision and
// AudD are optional and their flows report a configuration error when absent.
// store may be nil when history is disabled.
func NewFromConfig(cfg *config.Config, store *history.Store, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(seconds(cfg.TMDB.TimeoutSeconds)),
	)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	titles := titlesearch.New(tmdbClient, titlesearch.Options{
		CacheTTL:          seconds(cfg.TMDB.CacheTTLSeconds),
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		BreakerFailures:   uint32(max(cfg.TMDB.BreakerFailures, 0)),
		BreakerTimeout:    seconds(cfg.TMDB.BreakerTimeoutSeconds),
		Logger:            logger,
	})
	resolver := recognition.NewResolver(titles, ResolverOptions(cfg.Recognition), logger)

	deps := Dependencies{
		Titles:   titles,
		Resolver: resolver,
		Frames: media.NewFrameExtractor(
			cfg.FFmpegBinary(),
			cfg.FFprobeBinary(),
			cfg.Video.FrameOffsetSeconds,
			seconds(cfg.Video.TimeoutSeconds),
			logger,
		),
		Binaries: media.VideoRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
	}
	if strings.TrimSpace(cfg.Vision.APIKey) != "" {
		detector, err := vision.New(cfg.Vision.APIKey, cfg.Vision.BaseURL,
			vision.WithTimeout(seconds(cfg.Vision.TimeoutSeconds)),
			vision.WithMaxResults(cfg.Vision.TextMaxResults, cfg.Vision.WebMaxResults),
		)
		if err != nil {
			return nil, fmt.Errorf("vision client: %w", err)
		}
		deps.Detector = detector
	}
	if strings.TrimSpace(cfg.AudD.APIToken) != "" {
		songs, err := audd.New(cfg.AudD.APIToken, cfg.AudD.BaseURL,
			audd.WithTimeout(seconds(cfg.AudD.TimeoutSeconds)),
			audd.WithReturn(cfg.AudD.Return),
		)
		if err != nil {
			return nil, fmt.Errorf("audd client: %w", err)
		}
		deps.Songs = songs
	}
	if store != nil {
		deps.History = store
	}
	return NewService(deps, logger), nil
}

// ResolverOptions maps the recognition config section onto resolver options.
func ResolverOptions(rc config.Recognition) recognition.Options {
	return recognition.Options{
		BestGuessLimit:     rc.BestGuessLimit,
		WebEntityLimit:     rc.WebEntityLimit,
		AcceptThreshold:    rc.AcceptThreshold,
		MinSubstringLength: rc.MinSubstringLength,
		OCRWindowStarts:    rc.OCRWindowStarts,
		SearchTimeout:      seconds(rc.SearchTimeoutSeconds),
		GenericTerms:       rc.GenericTerms,
		StopWords:          rc.StopWords,
	}
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

// Status describes which recognition flows are usable.
type Status struct {
	VisionConfigured bool           `json:"vision_configured"`
	AudDConfigured   bool           `json:"audd_configured"`
	TitleBreaker     string         `json:"tmdb_breaker,omitempty"`
	Binaries         []media.Status `json:"binaries"`
	History          *history.Stats `json:"history,omitempty"`
	HistoryError     string         `json:"history_error,omitempty"`
}

type breakerReporter interface {
	BreakerState() string
}

type statsReader interface {
	Stats(ctx context.Context) (history.Stats, error)
}

// Status reports configured upstreams, binary availability and history totals.
func (s *Service) Status(ctx context.Context) Status {
	status := Status{
		VisionConfigured: s.deps.Detector != nil,
		AudDConfigured:   s.deps.Songs != nil,
		Binaries:         media.CheckBinaries(s.deps.Binaries),
	}
	if reporter, ok := s.deps.Titles.(breakerReporter); ok {
		status.TitleBreaker = reporter.BreakerState()
	}
	if reader, ok := s.deps.History.(statsReader); ok {
		stats, err := reader.Stats(ctx)
		if err != nil {
			status.HistoryError = err.Error()
		} else {
			status.History = &stats
		}
	}
	return status
}
