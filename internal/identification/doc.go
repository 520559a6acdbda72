// Package identification turns uploaded media into a movie match.
//
// The Service owns one flow per input kind. Images go through Google Vision
// and the candidate resolver. Audio goes through AudD and a title search on the
// recognized song. Video has one frame extracted with ffmpeg and then follows
// the image flow. Text queries go straight to title search. Every flow ends in
// the same place: the match is enriched with TMDB details, the outcome is
// recorded in history and metrics, and a Result is returned.
//
// "No match" is a successful call with Result.Success false. Errors are
// reserved for bad input, missing configuration and upstream failures outside
// the resolver.
package identification
