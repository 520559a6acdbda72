// Package media wraps the external media tools CineScan shells out to.
//
// FrameExtractor pulls a single still from an uploaded video clip with ffmpeg
// so the clip can go through image recognition. CheckBinaries reports which
// of those tools are installed for status output.
package media
