package identification_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"cinescan/internal/audd"
	"cinescan/internal/history"
	"cinescan/internal/identification"
	"cinescan/internal/recognition"
	"cinescan/internal/services"
	"cinescan/internal/tmdb"
)

type stubDetector struct {
	result *recognition.DetectionResult
	err    error
	seen   []byte
}

func (s *stubDetector) Detect(_ context.Context, image []byte) (*recognition.DetectionResult, error) {
	s.seen = image
	return s.result, s.err
}

type stubSongs struct {
	song *audd.Song
	err  error
}

func (s *stubSongs) Recognize(context.Context, []byte) (*audd.Song, error) {
	return s.song, s.err
}

type stubFrames struct {
	frame    []byte
	err      error
	filename string
}

func (s *stubFrames) ExtractFrame(_ context.Context, _ []byte, filename string) ([]byte, error) {
	s.filename = filename
	return s.frame, s.err
}

type stubTitles struct {
	titles     map[string]*recognition.MatchedTitle
	searchErr  error
	details    *tmdb.MovieDetails
	detailsErr error
	queries    []string
}

func (s *stubTitles) Search(_ context.Context, query string) (*recognition.MatchedTitle, error) {
	s.queries = append(s.queries, query)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.titles[query], nil
}

func (s *stubTitles) Details(context.Context, int64) (*tmdb.MovieDetails, error) {
	if s.detailsErr != nil {
		return nil, s.detailsErr
	}
	if s.details == nil {
		return nil, errors.New("no details stubbed")
	}
	return s.details, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memoryHistory) Record(_ context.Context, entry history.Entry) (history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memoryHistory) Stats(context.Context) (history.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := history.Stats{Total: len(m.entries)}
	for _, entry := range m.entries {
		if entry.Success {
			stats.Succeeded++
		}
	}
	return stats, nil
}

var inception = &recognition.MatchedTitle{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}

func inceptionDetails() *tmdb.MovieDetails {
	return &tmdb.MovieDetails{
		Result:  tmdb.Result{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"},
		Runtime: 148,
		Genres:  []tmdb.Genre{{ID: 878, Name: "Science Fiction"}},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{{Name: "Leonardo DiCaprio", Character: "Cobb"}},
			Crew: []tmdb.CrewMember{{Name: "Christopher Nolan", Job: "Director"}},
		},
	}
}

func TestRecognizeImageEnrichesAndRecords(t *testing.T) {
	detector := &stubDetector{result: &recognition.DetectionResult{
		WebEntities: []recognition.WebEntity{{Text: "Leonardo DiCaprio", Score: 0.95}, {Text: "Inception", Score: 0.9}},
	}}
	titles := &stubTitles{
		titles:  map[string]*recognition.MatchedTitle{"Inception": inception},
		details: inceptionDetails(),
	}
	store := &memoryHistory{}
	svc := identification.NewService(identification.Dependencies{
		Detector: detector,
		Titles:   titles,
		History:  store,
	}, nil)

	ctx := services.WithRequestID(context.Background(), "req-42")
	result, err := svc.RecognizeImage(ctx, []byte("jpeg"))
	if err != nil {
		t.Fatalf("RecognizeImage failed: %v", err)
	}
	if !result.Success || result.Source != string(recognition.StrategyWebEntity) {
		t.Fatalf("unexpected result %#v", result)
	}
	if result.Movie == nil || result.Movie.Title != "Inception" || result.Movie.Year != "2010" {
		t.Fatalf("unexpected movie %#v", result.Movie)
	}
	if result.Movie.Runtime != 148 || len(result.Movie.Directors) != 1 || result.Movie.Directors[0] != "Christopher Nolan" {
		t.Fatalf("expected details enrichment, got %#v", result.Movie)
	}
	if len(result.Movie.Cast) != 1 || result.Movie.Cast[0].Character != "Cobb" {
		t.Fatalf("expected cast, got %#v", result.Movie.Cast)
	}
	if result.RequestID != "req-42" {
		t.Fatalf("expected request id to propagate, got %q", result.RequestID)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(store.entries))
	}
	entry := store.entries[0]
	if entry.Kind != "image" || entry.TMDBID != 27205 || !entry.Success || entry.RequestID != "req-42" {
		t.Fatalf("unexpected history entry %#v", entry)
	}
}

func TestRecognizeImageKeepsSearchHitWhenDetailsFail(t *testing.T) {
	svc := identification.NewService(identification.Dependencies{
		Detector: &stubDetector{result: &recognition.DetectionResult{BestGuessLabels: []string{"Inception"}}},
		Titles: &stubTitles{
			titles:     map[string]*recognition.MatchedTitle{"Inception": inception},
			detailsErr: errors.New("tmdb down"),
		},
	}, nil)

	result, err := svc.RecognizeImage(context.Background(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("RecognizeImage failed: %v", err)
	}
	if result.Movie == nil || result.Movie.ID != 27205 || result.Movie.Runtime != 0 {
		t.Fatalf("expected search-level movie, got %#v", result.Movie)
	}
	if result.Source != string(recognition.StrategyBestGuess) {
		t.Fatalf("unexpected source %q", result.Source)
	}
}

func TestRecognizeImageWithoutDetectionMakesNoSearches(t *testing.T) {
	titles := &stubTitles{}
	store := &memoryHistory{}
	svc := identification.NewService(identification.Dependencies{
		Detector: &stubDetector{result: &recognition.DetectionResult{}},
		Titles:   titles,
		History:  store,
	}, nil)

	result, err := svc.RecognizeImage(context.Background(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("RecognizeImage failed: %v", err)
	}
	if result.Success || result.Movie != nil || result.Error != recognition.ReasonNoDetection {
		t.Fatalf("unexpected result %#v", result)
	}
	if len(titles.queries) != 0 {
		t.Fatalf("expected no searches, got %v", titles.queries)
	}
	if len(store.entries) != 1 || store.entries[0].Success {
		t.Fatalf("expected a failed history entry, got %#v", store.entries)
	}
}

func TestRecognizeImageErrors(t *testing.T) {
	titles := &stubTitles{}

	svc := identification.NewService(identification.Dependencies{Titles: titles}, nil)
	if _, err := svc.RecognizeImage(context.Background(), []byte("jpeg")); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without detector, got %v", err)
	}
	if _, err := svc.RecognizeImage(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty image, got %v", err)
	}

	store := &memoryHistory{}
	svc = identification.NewService(identification.Dependencies{
		Detector: &stubDetector{err: errors.New("quota exceeded")},
		Titles:   titles,
		History:  store,
	}, nil)
	_, err := svc.RecognizeImage(context.Background(), []byte("jpeg"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(store.entries) != 1 || !strings.Contains(store.entries[0].Reason, "quota exceeded") {
		t.Fatalf("expected failure recorded, got %#v", store.entries)
	}
}

type cancellingTitles struct {
	stubTitles
	cancel context.CancelFunc
}

func (s *cancellingTitles) Search(ctx context.Context, query string) (*recognition.MatchedTitle, error) {
	s.cancel()
	s.queries = append(s.queries, query)
	return nil, ctx.Err()
}

func TestRecognizeImageCancelledSkipsHistory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	titles := &cancellingTitles{cancel: cancel}
	store := &memoryHistory{}
	svc := identification.NewService(identification.Dependencies{
		Detector: &stubDetector{result: &recognition.DetectionResult{
			BestGuessLabels: []string{"Inception", "Interstellar"},
			RawText:         []string{"Christopher Nolan Inception"},
		}},
		Titles:  titles,
		History: store,
	}, nil)

	_, err := svc.RecognizeImage(ctx, []byte("jpeg"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if len(titles.queries) != 1 {
		t.Fatalf("expected searching to stop after cancellation, got %v", titles.queries)
	}
	if len(store.entries) != 0 {
		t.Fatalf("expected no history for a cancelled request, got %#v", store.entries)
	}
}

func TestRecognizeVideoUsesExtractedFrame(t *testing.T) {
	detector := &stubDetector{result: &recognition.DetectionResult{BestGuessLabels: []string{"Inception"}}}
	frames := &stubFrames{frame: []byte("frame-bytes")}
	svc := identification.NewService(identification.Dependencies{
		Detector: detector,
		Frames:   frames,
		Titles:   &stubTitles{titles: map[string]*recognition.MatchedTitle{"Inception": inception}},
	}, nil)

	result, err := svc.RecognizeVideo(context.Background(), []byte("mp4"), "clip.mp4")
	if err != nil {
		t.Fatalf("RecognizeVideo failed: %v", err)
	}
	if !result.Success || result.Kind != identification.KindVideo {
		t.Fatalf("unexpected result %#v", result)
	}
	if string(detector.seen) != "frame-bytes" || frames.filename != "clip.mp4" {
		t.Fatalf("expected detector to receive frame, got %q from %q", detector.seen, frames.filename)
	}
}

func TestRecognizeVideoErrors(t *testing.T) {
	svc := identification.NewService(identification.Dependencies{
		Detector: &stubDetector{},
		Titles:   &stubTitles{},
	}, nil)
	if _, err := svc.RecognizeVideo(context.Background(), []byte("mp4"), "clip.mp4"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without frame source, got %v", err)
	}

	frameErr := services.Wrap(services.ErrExternalTool, "media", "extract frame", "ffmpeg failed", errors.New("exit 1"))
	svc = identification.NewService(identification.Dependencies{
		Detector: &stubDetector{},
		Frames:   &stubFrames{err: frameErr},
		Titles:   &stubTitles{},
	}, nil)
	if _, err := svc.RecognizeVideo(context.Background(), []byte("mp4"), "clip.mp4"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected frame error to surface, got %v", err)
	}
}

func TestRecognizeAudio(t *testing.T) {
	song := &audd.Song{Title: "Time", Artist: "Hans Zimmer"}
	titles := &stubTitles{
		titles:  map[string]*recognition.MatchedTitle{"Time Hans Zimmer": inception},
		details: inceptionDetails(),
	}
	svc := identification.NewService(identification.Dependencies{Songs: &stubSongs{song: song}, Titles: titles}, nil)

	result, err := svc.RecognizeAudio(context.Background(), []byte("mp3"))
	if err != nil {
		t.Fatalf("RecognizeAudio failed: %v", err)
	}
	if !result.Success || result.Source != identification.SourceAudio || result.Song != song {
		t.Fatalf("unexpected result %#v", result)
	}
	if result.Query != "Time Hans Zimmer" || result.Movie == nil || result.Movie.Title != "Inception" {
		t.Fatalf("unexpected query or movie %#v", result)
	}
}

func TestRecognizeAudioMisses(t *testing.T) {
	svc := identification.NewService(identification.Dependencies{Songs: &stubSongs{}, Titles: &stubTitles{}}, nil)
	result, err := svc.RecognizeAudio(context.Background(), []byte("mp3"))
	if err != nil {
		t.Fatalf("RecognizeAudio failed: %v", err)
	}
	if result.Success || result.Error != "Could not recognize audio" {
		t.Fatalf("unexpected result for unknown song %#v", result)
	}

	song := &audd.Song{Title: "Unknown", Artist: "Nobody"}
	svc = identification.NewService(identification.Dependencies{Songs: &stubSongs{song: song}, Titles: &stubTitles{}}, nil)
	result, err = svc.RecognizeAudio(context.Background(), []byte("mp3"))
	if err != nil {
		t.Fatalf("RecognizeAudio failed: %v", err)
	}
	if result.Success || result.Error != "Could not find movie from audio" || result.Song == nil {
		t.Fatalf("unexpected result for unmatched song %#v", result)
	}

	svc = identification.NewService(identification.Dependencies{Titles: &stubTitles{}}, nil)
	if _, err := svc.RecognizeAudio(context.Background(), []byte("mp3")); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without AudD, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	titles := &stubTitles{titles: map[string]*recognition.MatchedTitle{"Inception": inception}}
	svc := identification.NewService(identification.Dependencies{Titles: titles}, nil)

	result, err := svc.Search(context.Background(), "  Inception ")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !result.Success || result.Source != identification.SourceSearch || result.Movie.ID != 27205 {
		t.Fatalf("unexpected result %#v", result)
	}

	result, err = svc.Search(context.Background(), "Nonexistent")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Success || result.Error != "Could not find movie: Nonexistent" {
		t.Fatalf("unexpected miss %#v", result)
	}

	if _, err := svc.Search(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	titles.searchErr = services.Wrap(services.ErrTransient, "titlesearch", "search", "breaker open", nil)
	if _, err := svc.Search(context.Background(), "Inception"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error to surface, got %v", err)
	}
}

func TestStatusReportsConfiguredFlows(t *testing.T) {
	store := &memoryHistory{}
	store.entries = []history.Entry{{Kind: "image", Success: true}, {Kind: "audio"}}
	svc := identification.NewService(identification.Dependencies{
		Detector: &stubDetector{},
		Titles:   &stubTitles{},
		History:  store,
	}, nil)

	status := svc.Status(context.Background())
	if !status.VisionConfigured || status.AudDConfigured {
		t.Fatalf("unexpected configured flags %#v", status)
	}
	if status.History == nil || status.History.Total != 2 || status.History.Succeeded != 1 {
		t.Fatalf("unexpected history stats %#v", status.History)
	}
}
