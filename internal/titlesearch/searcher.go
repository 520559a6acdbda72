package titlesearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"cinescan/internal/logging"
	"cinescan/internal/metrics"
	"cinescan/internal/recognition"
	"cinescan/internal/services"
	"cinescan/internal/tmdb"
)

const breakerName = "tmdb"

// Options tunes caching, throttling and the breaker.
type Options struct {
	CacheTTL          time.Duration
	CacheSize         int
	RequestsPerSecond float64
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
	Logger            *slog.Logger
}

type cacheEntry struct {
	title   *recognition.MatchedTitle
	expires time.Time
}

// Searcher resolves free text to the best TMDB movie match.
type Searcher struct {
	client  tmdb.Searcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger

	mu       sync.Mutex
	cache     map[string]cacheEntry
	cacheTTL  time.Duration
	cacheSize int
	now       func() time.Time
}

var _ recognition.TitleSearcher = (*Searcher)(nil)

// New wraps client. Zero options select ten minute caching of up to 1024
// queries, four requests per second, and a breaker that opens after five
// consecutive failures for 30s.
func New(client tmdb.Searcher, opts Options) *Searcher {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 4
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "titlesearch")

	s := &Searcher{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:   logger,
		cache:     make(map[string]cacheEntry),
		cacheTTL:  opts.CacheTTL,
		cacheSize: opts.CacheSize,
		now:       time.Now,
	}
	failures := opts.BreakerFailures
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(logger, "tmdb circuit breaker opened", "tmdb_breaker_open",
					logging.String("from", from.String()),
					logging.String(logging.FieldErrorHint, "check TMDB availability and API key"),
					logging.String(logging.FieldImpact, "title searches fail fast until the breaker half-opens"),
				)
				return
			}
			logger.Info("tmdb circuit breaker state changed",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})
	return s
}

// countsAsSuccess keeps caller cancellations and "not found" answers from
// tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *tmdb.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Search returns the first TMDB result for query, or nil when TMDB has none.
func (s *Searcher) Search(ctx context.Context, query string) (*recognition.MatchedTitle, error) {
	if s == nil || s.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "titlesearch", "search", "tmdb client unavailable", nil)
	}
	cleaned := CleanQuery(query)
	if cleaned == "" {
		return nil, services.Wrap(services.ErrValidation, "titlesearch", "search", "query must not be empty", nil)
	}

	key := strings.ToLower(cleaned)
	if title, ok := s.cached(key); ok {
		metrics.RecordTitleSearch("cache_hit")
		return title, nil
	}

	result, err := s.call(ctx, "search", func() (any, error) {
		return s.client.SearchMovie(ctx, cleaned)
	})
	if err != nil {
		return nil, err
	}
	resp, _ := result.(*tmdb.Response)

	var title *recognition.MatchedTitle
	if resp != nil && len(resp.Results) > 0 {
		title = toMatchedTitle(resp.Results[0])
		metrics.RecordTitleSearch("match")
	} else {
		metrics.RecordTitleSearch("no_match")
	}
	s.store(key, title)

	s.logger.Debug("tmdb search completed",
		logging.String("query", cleaned),
		logging.Bool("matched", title != nil),
	)
	return title, nil
}

// Details fetches full movie details with credits for a matched title.
func (s *Searcher) Details(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	if s == nil || s.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "titlesearch", "details", "tmdb client unavailable", nil)
	}
	result, err := s.call(ctx, "details", func() (any, error) {
		return s.client.GetMovieDetails(ctx, movieID)
	})
	if err != nil {
		return nil, err
	}
	details, _ := result.(*tmdb.MovieDetails)
	if details == nil {
		return nil, services.Wrap(services.ErrNotFound, "titlesearch", "details", fmt.Sprintf("movie %d", movieID), nil)
	}
	return details, nil
}

// BreakerState reports the breaker state name for status output.
func (s *Searcher) BreakerState() string {
	if s == nil || s.breaker == nil {
		return "unknown"
	}
	return s.breaker.State().String()
}

func (s *Searcher) call(ctx context.Context, operation string, fn func() (any, error)) (any, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		metrics.RecordTitleSearch("error")
		return nil, services.Wrap(services.ErrTimeout, "titlesearch", operation, "rate limit wait", err)
	}

	start := time.Now()
	result, err := s.breaker.Execute(fn)
	metrics.RecordExternalCall("tmdb", operation, time.Since(start), err)
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordTitleSearch("breaker_open")
		return nil, services.Wrap(services.ErrTransient, "titlesearch", operation, "tmdb circuit open", err)
	case errors.Is(err, context.DeadlineExceeded):
		metrics.RecordTitleSearch("error")
		return nil, services.Wrap(services.ErrTimeout, "titlesearch", operation, "tmdb request timed out", err)
	default:
		metrics.RecordTitleSearch("error")
		return nil, services.Wrap(services.ErrExternalTool, "titlesearch", operation, "tmdb request failed", err)
	}
}

func (s *Searcher) cached(key string) (*recognition.MatchedTitle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.title, true
}

func (s *Searcher) store(key string, title *recognition.MatchedTitle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if _, ok := s.cache[key]; !ok && len(s.cache) >= s.cacheSize {
		s.evictLocked(now)
	}
	s.cache[key] = cacheEntry{title: title, expires: now.Add(s.cacheTTL)}
}

// evictLocked drops every expired entry, or the one closest to expiry when
// none has expired yet.
func (s *Searcher) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range s.cache {
		if !now.Before(entry.expires) {
			delete(s.cache, key)
			continue
		}
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey, oldest = key, entry.expires
		}
	}
	if len(s.cache) >= s.cacheSize && oldestKey != "" {
		delete(s.cache, oldestKey)
	}
}

func toMatchedTitle(result tmdb.Result) *recognition.MatchedTitle {
	return &recognition.MatchedTitle{
		ID:            result.ID,
		Title:         result.Title,
		OriginalTitle: result.OriginalTitle,
		ReleaseDate:   result.ReleaseDate,
		Overview:      result.Overview,
		PosterPath:    result.PosterPath,
		Popularity:    result.Popularity,
		VoteAverage:   result.VoteAverage,
	}
}
