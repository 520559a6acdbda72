package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{Index: 0, CodecType: "video", Duration: "12.5"},
			{Index: 1, CodecType: "audio", Duration: "13.0"},
			{Index: 2, CodecType: "Video", Duration: "3"},
		},
		Format: Format{Duration: "12.48"},
	}
	if got := result.VideoStreamCount(); got != 2 {
		t.Fatalf("expected 2 video streams, got %d", got)
	}
	if got := result.DurationSeconds(); got != 12.48 {
		t.Fatalf("expected container duration, got %v", got)
	}

	result.Format.Duration = ""
	if got := result.DurationSeconds(); got != 12.5 {
		t.Fatalf("expected longest video stream duration, got %v", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "N/A"}, Streams: []Stream{{CodecType: "video", Duration: "NaN"}}}
	if got := result.DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for invalid durations, got %v", got)
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n{\"streams\":[{\"index\":0,\"codec_type\":\"video\",\"width\":1920,\"height\":1080}],\"format\":{\"duration\":\"42.0\"}}\nJSON\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.DurationSeconds() != 42 || result.Streams[0].Width != 1920 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
