package api

import (
	"cinescan/internal/history"
	"cinescan/internal/identification"
	"cinescan/internal/preflight"
)

// FromResult converts an identification result to the response envelope.
func FromResult(result *identification.Result) RecognitionResponse {
	if result == nil {
		return RecognitionResponse{}
	}
	return RecognitionResponse{
		Success:    result.Success,
		Source:     result.Source,
		Movie:      result.Movie,
		Error:      result.Error,
		Query:      result.Query,
		Candidates: result.Candidates,
		Song:       result.Song,
		RequestID:  result.RequestID,
	}
}

// Failure builds the envelope for a request that never produced a result.
func Failure(message string) RecognitionResponse {
	return RecognitionResponse{Success: false, Error: message}
}

// FromHistoryEntry converts a stored entry to its API representation.
func FromHistoryEntry(entry history.Entry) HistoryEntry {
	dto := HistoryEntry{
		ID:         entry.ID,
		Kind:       entry.Kind,
		Source:     entry.Source,
		Query:      entry.Query,
		Title:      entry.Title,
		TMDBID:     entry.TMDBID,
		Success:    entry.Success,
		Reason:     entry.Reason,
		RequestID:  entry.RequestID,
		DurationMS: entry.Duration.Milliseconds(),
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromHistoryEntries converts a slice, never returning nil.
func FromHistoryEntries(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromHistoryEntry(entry))
	}
	return out
}

// FromStatus converts a service status snapshot.
func FromStatus(status identification.Status, version string) ServiceStatus {
	dto := ServiceStatus{
		Running:          true,
		Version:          version,
		VisionConfigured: status.VisionConfigured,
		AudDConfigured:   status.AudDConfigured,
		TitleBreaker:     status.TitleBreaker,
		Binaries:         status.Binaries,
		HistoryError:     status.HistoryError,
	}
	if status.History != nil {
		dto.History = &HistoryStats{Total: status.History.Total, Succeeded: status.History.Succeeded}
	}
	return dto
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []Check {
	checks := make([]Check, 0, len(results))
	for _, result := range results {
		checks = append(checks, Check{Name: result.Name, Passed: result.Passed, Detail: result.Detail})
	}
	return checks
}
