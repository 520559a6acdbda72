// Package titlesearch adapts the TMDB client into the title searcher consumed
// by the candidate resolver.
//
// Queries are cleaned before they reach TMDB, answers (including "no match")
// are cached for a configurable TTL, outbound calls share one token bucket, and
// a circuit breaker stops hammering TMDB once it starts failing. The searcher
// reports failures as errors and an empty result as (nil, nil) so callers can
// tell the two apart.
package titlesearch
