// Package api defines the wire-format types served by the HTTP API and printed
// by the CLI in --json mode. It translates identification results, history
// entries and status snapshots into transport-friendly DTOs.
//
// # Key Types
//
// RecognitionResponse: the envelope every recognition endpoint returns. The
// success, source, movie and error keys keep the shape existing clients
// already parse; query, candidates and song are diagnostics.
//
// SearchRequest: the JSON body of POST /api/search, validated with struct tags.
//
// HistoryEntry/HistoryResponse: recorded recognitions, newest first.
//
// # Design Notes
//
// JSON keys are snake_case to match the TMDB-derived movie payload. Timestamps
// use RFC3339 with milliseconds in UTC. Movie is always present and null on
// failure so clients can test a single key.
package api
