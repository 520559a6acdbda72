package recognition

import (
	"context"
	"strings"
)

// WebEntity is a named concept the image analysis service associated with the
// image, with its relevance score.
type WebEntity struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// DetectionResult holds the candidate pools extracted from one image.
type DetectionResult struct {
	BestGuessLabels []string    `json:"best_guess_labels"`
	WebEntities     []WebEntity `json:"web_entities"`
	RawText         []string    `json:"raw_text"`
}

// Empty reports whether every pool is empty or blank.
func (d DetectionResult) Empty() bool {
	for _, label := range d.BestGuessLabels {
		if strings.TrimSpace(label) != "" {
			return false
		}
	}
	for _, entity := range d.WebEntities {
		if strings.TrimSpace(entity.Text) != "" {
			return false
		}
	}
	for _, text := range d.RawText {
		if strings.TrimSpace(text) != "" {
			return false
		}
	}
	return true
}

// MatchedTitle is the best catalog record a title search returned.
type MatchedTitle struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"poster_path,omitempty"`
	Popularity    float64 `json:"popularity,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty"`
}

// TitleSearcher resolves free text to the single best matching title.
// A nil title with a nil error means the service had no match; an error means
// the call itself failed (transport, timeout, open breaker).
type TitleSearcher interface {
	Search(ctx context.Context, query string) (*MatchedTitle, error)
}

// Strategy names the cascade step that produced an outcome.
type Strategy string

const (
	StrategyBestGuess Strategy = "best_guess"
	StrategyWebEntity Strategy = "web_entity"
	StrategyOCRText   Strategy = "ocr_text"
)

// Match score buckets. A weak match scores its entity relevance clamped to
// [0, 1], so any bucket outranks any weak match.
const (
	ScorePerfect          = 10000
	ScoreContainedInTitle = 5000
	ScoreContainsTitle    = 4000
)

// Candidate is one web entity paired with the title it resolved to.
type Candidate struct {
	Query        string  `json:"query"`
	MatchedTitle string  `json:"matched_title"`
	MatchScore   int     `json:"match_score"`
	EntityScore  float64 `json:"entity_score"`

	match *MatchedTitle
}

const (
	ReasonNoDetection = "No usable text or labels were detected in the image. Try a clearer image with the movie title visible."
	ReasonNoMatch     = "Could not identify the movie. Try a clearer image with the movie title visible."
)

// Outcome is the final decision for one detection result.
type Outcome struct {
	Success     bool          `json:"success"`
	Source      Strategy      `json:"source,omitempty"`
	Title       *MatchedTitle `json:"title,omitempty"`
	Query       string        `json:"query,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Candidates  []Candidate   `json:"candidates,omitempty"`
	SearchCalls int           `json:"search_calls"`
}
