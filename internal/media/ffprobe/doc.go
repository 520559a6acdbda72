// Package ffprobe provides a typed wrapper around ffprobe JSON output, used to
// pick a frame offset that actually exists in an uploaded clip.
package ffprobe
