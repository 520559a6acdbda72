package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cinescan/internal/services"
)

// writeScript drops an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// fakeFFmpeg records the -ss value of every call and writes a frame unless the
// offset is listed in failOffsets.
func fakeFFmpeg(t *testing.T, dir, failOffsets string) (string, string) {
	t.Helper()
	logPath := filepath.Join(dir, "calls.log")
	body := `echo "$6" >> "` + logPath + `"
for arg; do last="$arg"; done
case " ` + failOffsets + ` " in
  *" $6 "*) exit 1 ;;
esac
printf 'jpeg-frame' > "$last"
`
	return writeScript(t, dir, "ffmpeg", body), logPath
}

func readCalls(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}
	return strings.Fields(string(data))
}

func TestExtractFrameAtOffset(t *testing.T) {
	dir := t.TempDir()
	ffmpeg, calls := fakeFFmpeg(t, dir, "")
	extractor := NewFrameExtractor(ffmpeg, "", 5, time.Minute, nil)

	frame, err := extractor.ExtractFrame(context.Background(), []byte("video"), "clip.mp4")
	if err != nil {
		t.Fatalf("ExtractFrame returned error: %v", err)
	}
	if string(frame) != "jpeg-frame" {
		t.Fatalf("unexpected frame %q", frame)
	}
	if got := readCalls(t, calls); len(got) != 1 || got[0] != "5.000" {
		t.Fatalf("unexpected ffmpeg calls %v", got)
	}
}

func TestExtractFrameRetriesFirstFrame(t *testing.T) {
	dir := t.TempDir()
	ffmpeg, calls := fakeFFmpeg(t, dir, "5.000")
	extractor := NewFrameExtractor(ffmpeg, "", 5, time.Minute, nil)

	frame, err := extractor.ExtractFrame(context.Background(), []byte("video"), "short.mov")
	if err != nil {
		t.Fatalf("ExtractFrame returned error: %v", err)
	}
	if len(frame) == 0 {
		t.Fatal("expected frame from retry")
	}
	if got := readCalls(t, calls); len(got) != 2 || got[1] != "0.000" {
		t.Fatalf("expected retry at 0, got %v", got)
	}
}

func TestExtractFrameUsesProbeDuration(t *testing.T) {
	dir := t.TempDir()
	ffmpeg, calls := fakeFFmpeg(t, dir, "")
	ffprobe := writeScript(t, dir, "ffprobe", "echo '{\"format\":{\"duration\":\"2.0\"}}'\n")
	extractor := NewFrameExtractor(ffmpeg, ffprobe, 5, time.Minute, nil)

	if _, err := extractor.ExtractFrame(context.Background(), []byte("video"), "clip.webm"); err != nil {
		t.Fatalf("ExtractFrame returned error: %v", err)
	}
	if got := readCalls(t, calls); len(got) != 1 || got[0] != "1.000" {
		t.Fatalf("expected midpoint offset, got %v", got)
	}
}

func TestExtractFrameRejectsAudioOnlyClip(t *testing.T) {
	dir := t.TempDir()
	ffmpeg, calls := fakeFFmpeg(t, dir, "")
	ffprobe := writeScript(t, dir, "ffprobe",
		"echo '{\"streams\":[{\"index\":0,\"codec_type\":\"audio\"}],\"format\":{\"duration\":\"30.0\"}}'\n")
	extractor := NewFrameExtractor(ffmpeg, ffprobe, 5, time.Minute, nil)

	_, err := extractor.ExtractFrame(context.Background(), []byte("audio"), "song.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(calls); !os.IsNotExist(statErr) {
		t.Fatalf("expected ffmpeg not to run, stat error %v", statErr)
	}
}

func TestExtractFrameFailure(t *testing.T) {
	dir := t.TempDir()
	ffmpeg, _ := fakeFFmpeg(t, dir, "5.000 0.000")
	extractor := NewFrameExtractor(ffmpeg, "", 5, time.Minute, nil)

	_, err := extractor.ExtractFrame(context.Background(), []byte("video"), "clip.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExtractFrameMissingBinary(t *testing.T) {
	extractor := NewFrameExtractor("clearly-not-present-ffmpeg", "", 5, time.Minute, nil)
	_, err := extractor.ExtractFrame(context.Background(), []byte("video"), "clip.mp4")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExtractFrameRejectsEmptyVideo(t *testing.T) {
	extractor := NewFrameExtractor("ffmpeg", "", 5, time.Minute, nil)
	if _, err := extractor.ExtractFrame(context.Background(), nil, "clip.mp4"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSafeExtension(t *testing.T) {
	cases := []struct{ input, want string }{
		{"clip.MP4", ".mp4"},
		{"noext", ".bin"},
		{"../../etc/passwd", ".bin"},
		{"weird.m$v", ".bin"},
		{"movie.webm", ".webm"},
	}
	for _, tc := range cases {
		if got := safeExtension(tc.input); got != tc.want {
			t.Errorf("safeExtension(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
