package identification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cinescan/internal/audd"
	"cinescan/internal/history"
	"cinescan/internal/logging"
	"cinescan/internal/media"
	"cinescan/internal/metrics"
	"cinescan/internal/recognition"
	"cinescan/internal/services"
	"cinescan/internal/tmdb"
)

// Detector extracts candidate pools from an image.
type Detector interface {
	Detect(ctx context.Context, image []byte) (*recognition.DetectionResult, error)
}

// SongRecognizer identifies the song playing in an audio clip.
type SongRecognizer interface {
	Recognize(ctx context.Context, audio []byte) (*audd.Song, error)
}

// FrameSource pulls a still image out of a video clip.
type FrameSource interface {
	ExtractFrame(ctx context.Context, video []byte, filename string) ([]byte, error)
}

// TitleService searches titles and fetches their details.
type TitleService interface {
	recognition.TitleSearcher
	Details(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
}

// HistoryRecorder persists finished recognitions.
type HistoryRecorder interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Dependencies groups the collaborators of a Service. Detector, Songs, Frames
// and History are optional; flows that need a missing one fail with a
// configuration error.
type Dependencies struct {
	Detector Detector
	Songs    SongRecognizer
	Frames   FrameSource
	Titles   TitleService
	Resolver *recognition.Resolver
	History  HistoryRecorder
	Binaries []media.Requirement
}

// Service runs recognition flows.
type Service struct {
	deps   Dependencies
	logger *slog.Logger
}

const (
	reasonNoSong       = "Could not recognize audio"
	reasonNoAudioMovie = "Could not find movie from audio"
)

// NewService wires a Service from explicit dependencies.
func NewService(deps Dependencies, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Resolver == nil && deps.Titles != nil {
		deps.Resolver = recognition.NewResolver(deps.Titles, recognition.Options{}, logger)
	}
	return &Service{deps: deps, logger: logging.NewComponentLogger(logger, "identification")}
}

// RecognizeImage identifies the movie shown in an image.
func (s *Service) RecognizeImage(ctx context.Context, image []byte) (*Result, error) {
	ctx = services.WithKind(ctx, string(KindImage))
	start := time.Now()
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrValidation, "identification", "recognize image", "image file is empty", nil)
	}
	result, err := s.resolveImage(ctx, KindImage, image)
	if err != nil {
		s.recordFailure(ctx, KindImage, start, err)
		return nil, err
	}
	return s.finish(ctx, result, start), nil
}

// RecognizeVideo extracts one frame from a clip and identifies it like an image.
func (s *Service) RecognizeVideo(ctx context.Context, video []byte, filename string) (*Result, error) {
	ctx = services.WithKind(ctx, string(KindVideo))
	start := time.Now()
	if len(video) == 0 {
		return nil, services.Wrap(services.ErrValidation, "identification", "recognize video", "video file is empty", nil)
	}
	if s.deps.Frames == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "recognize video", "video frame extraction is not configured", nil)
	}
	frame, err := s.deps.Frames.ExtractFrame(ctx, video, filename)
	if err != nil {
		s.recordFailure(ctx, KindVideo, start, err)
		return nil, err
	}
	s.logger.Debug("video frame extracted",
		logging.String("filename", filename),
		logging.Int("frame_bytes", len(frame)),
	)
	result, err := s.resolveImage(ctx, KindVideo, frame)
	if err != nil {
		s.recordFailure(ctx, KindVideo, start, err)
		return nil, err
	}
	return s.finish(ctx, result, start), nil
}

// RecognizeAudio identifies a movie from the song playing in an audio clip.
func (s *Service) RecognizeAudio(ctx context.Context, audio []byte) (*Result, error) {
	ctx = services.WithKind(ctx, string(KindAudio))
	start := time.Now()
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrValidation, "identification", "recognize audio", "audio file is empty", nil)
	}
	if s.deps.Songs == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "recognize audio", "AudD api token is not configured", nil)
	}
	if s.deps.Titles == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "recognize audio", "title search is not configured", nil)
	}

	song, err := s.deps.Songs.Recognize(ctx, audio)
	if err != nil {
		err = services.Wrap(services.ErrExternalTool, "audd", "recognize", "audio recognition failed", err)
		s.recordFailure(ctx, KindAudio, start, err)
		return nil, err
	}
	result := &Result{Kind: KindAudio, Song: song}
	if song == nil {
		result.Error = reasonNoSong
		return s.finish(ctx, result, start), nil
	}

	result.Query = song.Query()
	title, err := s.deps.Titles.Search(ctx, result.Query)
	if err != nil {
		s.recordFailure(ctx, KindAudio, start, err)
		return nil, err
	}
	if title == nil {
		result.Error = reasonNoAudioMovie
		return s.finish(ctx, result, start), nil
	}
	result.Success = true
	result.Source = SourceAudio
	result.Movie = s.enrich(ctx, title)
	return s.finish(ctx, result, start), nil
}

// Search looks a movie up by free text.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	ctx = services.WithKind(ctx, string(KindSearch))
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "identification", "search", "query must not be empty", nil)
	}
	if s.deps.Titles == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "search", "title search is not configured", nil)
	}

	title, err := s.deps.Titles.Search(ctx, query)
	if err != nil {
		s.recordFailure(ctx, KindSearch, start, err)
		return nil, err
	}
	result := &Result{Kind: KindSearch, Query: query}
	if title == nil {
		result.Error = fmt.Sprintf("Could not find movie: %s", query)
		return s.finish(ctx, result, start), nil
	}
	result.Success = true
	result.Source = SourceSearch
	result.Movie = s.enrich(ctx, title)
	return s.finish(ctx, result, start), nil
}

func (s *Service) resolveImage(ctx context.Context, kind Kind, image []byte) (*Result, error) {
	if s.deps.Detector == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "recognize image", "Google Vision api key is not configured", nil)
	}
	if s.deps.Resolver == nil {
		return nil, services.Wrap(services.ErrConfiguration, "identification", "recognize image", "title search is not configured", nil)
	}
	detection, err := s.deps.Detector.Detect(ctx, image)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "vision", "annotate", "image analysis failed", err)
	}
	if detection == nil {
		detection = &recognition.DetectionResult{}
	}
	s.logger.Debug("image detection summary",
		logging.Int("best_guess_labels", len(detection.BestGuessLabels)),
		logging.Int("web_entities", len(detection.WebEntities)),
		logging.Int("text_blocks", len(detection.RawText)),
	)

	outcome := s.deps.Resolver.Resolve(ctx, *detection)
	if err := ctx.Err(); err != nil && !outcome.Success {
		return nil, services.Wrap(services.ErrTimeout, "identification", "recognize image", "request ended before a match was found", err)
	}
	result := &Result{
		Kind:       kind,
		Success:    outcome.Success,
		Source:     string(outcome.Source),
		Query:      outcome.Query,
		Candidates: outcome.Candidates,
		Error:      outcome.Reason,
	}
	if outcome.Success {
		result.Movie = s.enrich(ctx, outcome.Title)
	}
	return result, nil
}

// enrich swaps the search hit for full details; a failed lookup keeps the hit.
func (s *Service) enrich(ctx context.Context, title *recognition.MatchedTitle) *Movie {
	movie := movieFromMatch(title)
	if title == nil || title.ID <= 0 || s.deps.Titles == nil {
		return movie
	}
	details, err := s.deps.Titles.Details(ctx, title.ID)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "movie details lookup failed; returning search result", "tmdb_details_failed",
			logging.Int64("tmdb_id", title.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check TMDB connectivity"),
			logging.String(logging.FieldImpact, "response omits cast, crew and runtime"),
		)
		return movie
	}
	return movieFromDetails(details)
}

func (s *Service) finish(ctx context.Context, result *Result, start time.Time) *Result {
	duration := time.Since(start)
	if id, ok := services.RequestIDFromContext(ctx); ok {
		result.RequestID = id
	}
	metrics.RecordRecognition(string(result.Kind), result.Source, result.Success, duration)

	entry := history.Entry{
		Kind:      string(result.Kind),
		Source:    result.Source,
		Query:     result.Query,
		Success:   result.Success,
		Reason:    result.Error,
		RequestID: result.RequestID,
		Duration:  duration,
	}
	if result.Movie != nil {
		entry.Title = result.Movie.Title
		entry.TMDBID = result.Movie.ID
	}
	s.record(ctx, entry)

	decision := "not_found"
	if result.Success {
		decision = "identified"
	}
	attrs := logging.DecisionAttrs("recognition", decision, result.Source)
	attrs = append(attrs, logging.Duration("duration", duration))
	if result.Movie != nil {
		attrs = append(attrs, logging.String("title", result.Movie.Title), logging.Int64("tmdb_id", result.Movie.ID))
	}
	if result.Error != "" {
		attrs = append(attrs, logging.String("reason", result.Error))
	}
	logging.WithContext(ctx, s.logger).Info("recognition finished", logging.Args(attrs...)...)
	return result
}

func (s *Service) recordFailure(ctx context.Context, kind Kind, start time.Time, err error) {
	duration := time.Since(start)
	metrics.RecordRecognition(string(kind), "", false, duration)
	if ctx.Err() != nil {
		// The caller is gone; a history row would read as a genuine miss.
		logging.WithContext(ctx, s.logger).Info("recognition abandoned",
			logging.Error(err),
			logging.Duration("duration", duration),
		)
		return
	}
	entry := history.Entry{Kind: string(kind), Reason: err.Error(), Duration: duration}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		entry.RequestID = id
	}
	s.record(ctx, entry)
	logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "recognition failed", "recognition_failed",
		logging.Error(err),
		logging.Int("status", services.HTTPStatus(err)),
	)
}

func (s *Service) record(ctx context.Context, entry history.Entry) {
	if s.deps.History == nil {
		return
	}
	if _, err := s.deps.History.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(s.logger, "history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
			logging.String(logging.FieldImpact, "recognition is missing from history"),
		)
	}
}
