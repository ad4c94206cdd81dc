package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/euacreations/streamvault/internal/models"
)

const (
	ThumbnailWidth  = 400
	ThumbnailHeight = 225

	// DefaultThumbnailFraction is how far into the asset the representative
	// frame is taken from.
	DefaultThumbnailFraction = 0.10
)

type Thumbnailer struct {
	Timeout time.Duration
}

func NewThumbnailer(timeout time.Duration) *Thumbnailer {
	return &Thumbnailer{Timeout: timeout}
}

// Generate writes a single downscaled frame taken atFraction into the input's
// duration. When the duration is unknown or zero it falls back to the first
// decodable frame.
func (t *Thumbnailer) Generate(ctx context.Context, inputPath, outputPath string, atFraction float64) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	if atFraction <= 0 || atFraction >= 1 {
		atFraction = DefaultThumbnailFraction
	}

	var seek float64
	if duration, err := probeDuration(ctx, inputPath); err == nil && duration > 0 {
		seek = duration * atFraction
	}

	args := []string{"-y"}
	if seek > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.2f", seek))
	}
	args = append(args,
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", ThumbnailWidth, ThumbnailHeight),
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		removeIfExists(outputPath)
		return &models.ThumbnailError{Err: fmt.Errorf("%w: %s", err, lastLine(out))}
	}

	return nil
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
