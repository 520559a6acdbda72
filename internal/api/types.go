package api

import (
	"cinescan/internal/audd"
	"cinescan/internal/identification"
	"cinescan/internal/media"
	"cinescan/internal/recognition"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Banner is returned by GET /api/.
type Banner struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// RecognitionResponse is the envelope shared by all recognition endpoints.
type RecognitionResponse struct {
	Success    bool                    `json:"success"`
	Source     string                  `json:"source,omitempty"`
	Movie      *identification.Movie   `json:"movie"`
	Error      string                  `json:"error,omitempty"`
	Query      string                  `json:"query,omitempty"`
	Candidates []recognition.Candidate `json:"candidates,omitempty"`
	Song       *audd.Song              `json:"song,omitempty"`
	RequestID  string                  `json:"request_id,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// HistoryEntry is one recorded recognition.
type HistoryEntry struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Source     string `json:"source,omitempty"`
	Query      string `json:"query,omitempty"`
	Title      string `json:"title,omitempty"`
	TMDBID     int64  `json:"tmdb_id,omitempty"`
	Success    bool   `json:"success"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// HistoryResponse wraps recent history entries.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// HistoryStats summarizes stored history.
type HistoryStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
}

// ServiceStatus reports which recognition flows are usable.
type ServiceStatus struct {
	Running          bool           `json:"running"`
	Version          string         `json:"version,omitempty"`
	VisionConfigured bool           `json:"vision_configured"`
	AudDConfigured   bool           `json:"audd_configured"`
	TitleBreaker     string         `json:"tmdb_breaker,omitempty"`
	Binaries         []media.Status `json:"binaries"`
	History          *HistoryStats  `json:"history,omitempty"`
	HistoryError     string         `json:"history_error,omitempty"`
	Checks           []Check        `json:"checks,omitempty"`
}

// Check is one preflight result.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}
