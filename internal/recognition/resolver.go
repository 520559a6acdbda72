package recognition

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cinescan/internal/logging"
)

const (
	DefaultBestGuessLimit     = 3
	DefaultWebEntityLimit     = 25
	DefaultAcceptThreshold    = ScoreContainsTitle
	DefaultMinSubstringLength = 5
	DefaultOCRWindowStarts    = 20
	DefaultSearchTimeout      = 10 * time.Second
)

// ocrWindowSizes are tried in order; every two-word window is searched before
// any three-word window.
var ocrWindowSizes = []int{2, 3}

// Options tunes the resolver. Zero values select the defaults above. The term
// lists extend the built-in generic terms and stop words.
type Options struct {
	BestGuessLimit     int
	WebEntityLimit     int
	AcceptThreshold    int
	MinSubstringLength int
	OCRWindowStarts    int
	SearchTimeout      time.Duration
	GenericTerms       []string
	StopWords          []string
}

func (o Options) withDefaults() Options {
	if o.BestGuessLimit <= 0 {
		o.BestGuessLimit = DefaultBestGuessLimit
	}
	if o.WebEntityLimit <= 0 {
		o.WebEntityLimit = DefaultWebEntityLimit
	}
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = DefaultAcceptThreshold
	}
	if o.MinSubstringLength <= 0 {
		o.MinSubstringLength = DefaultMinSubstringLength
	}
	if o.OCRWindowStarts <= 0 {
		o.OCRWindowStarts = DefaultOCRWindowStarts
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = DefaultSearchTimeout
	}
	return o
}

// Resolver runs the candidate cascade for a single detection result.
// It is safe for concurrent use when the searcher is.
type Resolver struct {
	searcher TitleSearcher
	opts     Options
	generic  termSet
	stop     termSet
	logger   *slog.Logger
}

// NewResolver builds a resolver backed by searcher.
func NewResolver(searcher TitleSearcher, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts = opts.withDefaults()
	return &Resolver{
		searcher: searcher,
		opts:     opts,
		generic:  newTermSet(defaultGenericTerms, opts.GenericTerms),
		stop:     newTermSet(defaultStopWords, opts.StopWords),
		logger:   logging.NewComponentLogger(logger, "resolver"),
	}
}

// Options returns the effective options after defaults were applied.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve walks best guess labels, web entities and OCR windows in that order
// and returns the first accepted match. It never returns an error; once ctx
// ends it stops searching and reports no match, so callers should check
// ctx.Err() before trusting a failed outcome.
func (r *Resolver) Resolve(ctx context.Context, detection DetectionResult) Outcome {
	logger := logging.WithContext(ctx, r.logger)
	if detection.Empty() || r.searcher == nil {
		outcome := Outcome{Reason: ReasonNoDetection}
		if !detection.Empty() {
			outcome.Reason = ReasonNoMatch
		}
		logger.Info("candidate resolution decision",
			logging.Args(logging.DecisionAttrs("candidate_resolution", "rejected", "no detection data")...)...)
		return outcome
	}

	run := &resolution{resolver: r, logger: logger}
	if outcome, ok := run.bestGuess(ctx, detection.BestGuessLabels); ok {
		return run.finish(outcome)
	}
	if ctx.Err() != nil {
		return run.finish(Outcome{Reason: ReasonNoMatch})
	}
	if outcome, ok := run.webEntities(ctx, detection.WebEntities); ok {
		return run.finish(outcome)
	}
	if ctx.Err() != nil {
		return run.finish(Outcome{Reason: ReasonNoMatch})
	}
	if outcome, ok := run.ocrWindows(ctx, detection.RawText); ok {
		return run.finish(outcome)
	}
	return run.finish(Outcome{Reason: ReasonNoMatch})
}

// resolution carries per-call state so the resolver itself stays immutable.
type resolution struct {
	resolver   *Resolver
	logger     *slog.Logger
	calls      int
	candidates []Candidate
}

func (run *resolution) finish(outcome Outcome) Outcome {
	outcome.SearchCalls = run.calls
	if outcome.Candidates == nil && len(run.candidates) > 0 {
		outcome.Candidates = run.candidates
	}
	result := "rejected"
	reason := outcome.Reason
	if outcome.Success {
		result = "accepted"
		reason = string(outcome.Source)
	}
	attrs := logging.DecisionAttrs("candidate_resolution", result, reason)
	attrs = append(attrs,
		logging.Int("search_calls", run.calls),
		logging.Int("candidates", len(outcome.Candidates)),
	)
	if outcome.Title != nil {
		attrs = append(attrs,
			logging.String("query", outcome.Query),
			logging.String("title", outcome.Title.Title),
			logging.Int64("tmdb_id", outcome.Title.ID),
		)
	}
	run.logger.Info("candidate resolution decision", logging.Args(attrs...)...)
	return outcome
}

func (run *resolution) bestGuess(ctx context.Context, labels []string) (Outcome, bool) {
	limit := min(len(labels), run.resolver.opts.BestGuessLimit)
	for _, label := range labels[:limit] {
		if ctx.Err() != nil {
			break
		}
		query := strings.TrimSpace(label)
		if query == "" {
			continue
		}
		if title := run.lookup(ctx, StrategyBestGuess, query); title != nil {
			return Outcome{Success: true, Source: StrategyBestGuess, Title: title, Query: query}, true
		}
	}
	return Outcome{}, false
}

func (run *resolution) webEntities(ctx context.Context, entities []WebEntity) (Outcome, bool) {
	opts := run.resolver.opts
	limit := min(len(entities), opts.WebEntityLimit)
	var candidates []Candidate
	for _, entity := range entities[:limit] {
		if ctx.Err() != nil {
			return Outcome{}, false
		}
		query := strings.TrimSpace(entity.Text)
		if query == "" {
			continue
		}
		if run.resolver.generic.has(foldTerm(query)) {
			run.logger.Debug("skipping generic web entity", logging.String("entity", query))
			continue
		}
		title := run.lookup(ctx, StrategyWebEntity, query)
		if title == nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Query:        query,
			MatchedTitle: title.Title,
			MatchScore:   scoreMatch(query, title.Title, entity.Score, opts.MinSubstringLength),
			EntityScore:  entity.Score,
			match:        title,
		})
	}
	if len(candidates) == 0 {
		return Outcome{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
	run.candidates = candidates

	top := candidates[0]
	run.logger.Debug("web entity candidates ranked",
		logging.Int("count", len(candidates)),
		logging.String("top_query", top.Query),
		logging.String("top_title", top.MatchedTitle),
		logging.Int("top_score", top.MatchScore),
	)
	if top.MatchScore < opts.AcceptThreshold {
		return Outcome{}, false
	}
	return Outcome{
		Success:    true,
		Source:     StrategyWebEntity,
		Title:      top.match,
		Query:      top.Query,
		Candidates: candidates,
	}, true
}

func (run *resolution) ocrWindows(ctx context.Context, rawText []string) (Outcome, bool) {
	if len(rawText) == 0 {
		return Outcome{}, false
	}
	words := strings.Fields(rawText[0])
	starts := run.resolver.opts.OCRWindowStarts
	for _, size := range ocrWindowSizes {
		limit := min(len(words)-size+1, starts)
		for i := 0; i < limit; i++ {
			if ctx.Err() != nil {
				return Outcome{}, false
			}
			if run.resolver.stop.has(foldTerm(stripWordPunctuation(words[i]))) {
				continue
			}
			query := strings.Join(words[i:i+size], " ")
			if title := run.lookup(ctx, StrategyOCRText, query); title != nil {
				return Outcome{Success: true, Source: StrategyOCRText, Title: title, Query: query}, true
			}
		}
	}
	return Outcome{}, false
}

// lookup performs one bounded search. Failures are logged and treated as no
// match so a single bad call never aborts the cascade. A search cut short by
// the caller's context is not logged.
func (run *resolution) lookup(ctx context.Context, strategy Strategy, query string) *MatchedTitle {
	run.calls++
	callCtx, cancel := context.WithTimeout(ctx, run.resolver.opts.SearchTimeout)
	defer cancel()

	title, err := run.resolver.searcher.Search(callCtx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logging.WarnWithContext(run.logger, "title search failed; treating as no match", "title_search_failed",
			logging.String("strategy", string(strategy)),
			logging.String("query", query),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check TMDB connectivity and API key"),
			logging.String(logging.FieldImpact, "candidate skipped"),
		)
		return nil
	}
	if title == nil || strings.TrimSpace(title.Title) == "" {
		return nil
	}
	return title
}
