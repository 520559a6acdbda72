// Package tmdb provides the minimal TMDB API client used for movie
// recognition.
//
// It exposes movie search and movie detail retrieval (with credits appended).
// Responses are strongly typed; callers outside this package never see raw
// JSON. Options allow tests to supply custom HTTP clients.
package tmdb
