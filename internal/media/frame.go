package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cinescan/internal/logging"
	"cinescan/internal/media/ffprobe"
	"cinescan/internal/services"
)

// FrameExtractor grabs one JPEG frame from a video clip.
type FrameExtractor struct {
	ffmpeg  string
	ffprobe string
	offset  float64
	timeout time.Duration
	logger  *slog.Logger
}

// NewFrameExtractor builds an extractor. offsetSeconds is where the frame is
// taken; short clips fall back to their midpoint or the first frame.
func NewFrameExtractor(ffmpegBinary, ffprobeBinary string, offsetSeconds float64, timeout time.Duration, logger *slog.Logger) *FrameExtractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if offsetSeconds < 0 {
		offsetSeconds = 0
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FrameExtractor{
		ffmpeg:  strings.TrimSpace(ffmpegBinary),
		ffprobe: strings.TrimSpace(ffprobeBinary),
		offset:  offsetSeconds,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "media"),
	}
}

// Available reports whether ffmpeg can be executed.
func (f *FrameExtractor) Available() error {
	if _, err := exec.LookPath(f.ffmpeg); err != nil {
		return services.Wrap(services.ErrConfiguration, "media", "extract frame", fmt.Sprintf("ffmpeg binary %q not found", f.ffmpeg), err)
	}
	return nil
}

// ExtractFrame writes video to a scratch directory and returns one JPEG frame.
func (f *FrameExtractor) ExtractFrame(ctx context.Context, video []byte, filename string) ([]byte, error) {
	if len(video) == 0 {
		return nil, services.Wrap(services.ErrValidation, "media", "extract frame", "video must not be empty", nil)
	}
	if err := f.Available(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "cinescan-video-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input"+safeExtension(filename))
	if err := os.WriteFile(input, video, 0o600); err != nil {
		return nil, fmt.Errorf("write video: %w", err)
	}
	output := filepath.Join(dir, "frame.jpg")

	offset, err := f.offsetFor(ctx, input)
	if err != nil {
		return nil, err
	}
	frame, err := f.grab(ctx, input, output, offset)
	if err != nil && offset > 0 {
		f.logger.Debug("frame grab failed at offset; retrying first frame",
			logging.String("offset", formatOffset(offset)),
			logging.Error(err),
		)
		frame, err = f.grab(ctx, input, output, 0)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "media", "extract frame", "ffmpeg timed out", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "media", "extract frame", "ffmpeg failed", err)
	}
	return frame, nil
}

// offsetFor keeps the configured offset inside the clip when ffprobe can tell
// how long it is. Clips whose streams are all non-video are rejected.
func (f *FrameExtractor) offsetFor(ctx context.Context, input string) (float64, error) {
	if f.ffprobe == "" {
		return f.offset, nil
	}
	if _, err := exec.LookPath(f.ffprobe); err != nil {
		return f.offset, nil
	}
	probe, err := ffprobe.Inspect(ctx, f.ffprobe, input)
	if err != nil {
		f.logger.Debug("ffprobe failed; using configured offset", logging.Error(err))
		return f.offset, nil
	}
	if len(probe.Streams) > 0 && probe.VideoStreamCount() == 0 {
		return 0, services.Wrap(services.ErrValidation, "media", "extract frame", "upload has no video stream", nil)
	}
	duration := probe.DurationSeconds()
	if duration > 0 && f.offset >= duration {
		return duration / 2, nil
	}
	return f.offset, nil
}

func (f *FrameExtractor) grab(ctx context.Context, input, output string, offset float64) ([]byte, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatOffset(offset),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2",
		output,
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	frame, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %ss", formatOffset(offset))
	}
	return frame, nil
}

func formatOffset(offset float64) string {
	return strconv.FormatFloat(offset, 'f', 3, 64)
}

func safeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ".bin"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".bin"
		}
	}
	return ext
}
