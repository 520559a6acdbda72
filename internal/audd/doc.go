// Package audd is a small client for the AudD music recognition API. A
// recognized song is turned into a free-text title search query.
package audd
