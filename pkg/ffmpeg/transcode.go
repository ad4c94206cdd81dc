package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/euacreations/streamvault/internal/models"
)

// Options configures a single transcode run. All bitrates are bits per
// second; they are converted to ffmpeg "Nk" arguments at invocation.
type Options struct {
	VideoCodec      string // encoder name, e.g. "libx264"
	AudioCodec      string
	VideoBitrateBPS int64
	AudioBitrateBPS int64
	Resolution      string
	Container       string
	Preset          string

	// DurationSeconds of the input, used to turn out_time progress lines
	// into a 0..1 fraction. Zero disables fraction reporting.
	DurationSeconds float64
	OnProgress      func(fraction float64)
}

type Transcoder struct{}

func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// Transcode runs one blocking ffmpeg invocation. Cancelling ctx kills the
// process. On any failure the partial output file is removed before the
// error is returned.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, opts Options) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", buildTranscodeArgs(inputPath, outputPath, opts)...)

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return &models.TranscodeError{Reason: "failed to get ffmpeg stderr", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &models.TranscodeError{Reason: "failed to start ffmpeg", Err: err}
	}

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		parseProgress(stderrPipe, opts)
	}()

	err = cmd.Wait()
	<-progressDone

	if err != nil {
		removeIfExists(outputPath)
		if ctx.Err() != nil {
			return &models.TranscodeError{Reason: "transcode cancelled", Err: ctx.Err()}
		}
		return &models.TranscodeError{Reason: "ffmpeg exited with error", Err: err}
	}

	return nil
}

// EncoderFor maps a probed codec name to the ffmpeg encoder that produces it.
func EncoderFor(codec string) string {
	switch codec {
	case "h264":
		return "libx264"
	case "hevc", "h265":
		return "libx265"
	default:
		return codec
	}
}

func buildTranscodeArgs(inputPath, outputPath string, opts Options) []string {
	args := []string{"-y", "-i", inputPath, "-c:v", opts.VideoCodec}

	if opts.VideoBitrateBPS > 0 {
		rate := bitrateArg(opts.VideoBitrateBPS)
		args = append(args,
			"-b:v", rate,
			"-maxrate", rate,
			"-bufsize", bitrateArg(2*opts.VideoBitrateBPS),
		)
	}

	if opts.Resolution != "" {
		args = append(args, "-s", opts.Resolution)
	}

	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}

	args = append(args, "-c:a", opts.AudioCodec)
	if opts.AudioBitrateBPS > 0 {
		args = append(args, "-b:a", bitrateArg(opts.AudioBitrateBPS))
	}

	if opts.Container != "" {
		args = append(args, "-f", opts.Container)
	}

	args = append(args, "-progress", "pipe:2", outputPath)
	return args
}

func bitrateArg(bps int64) string {
	return fmt.Sprintf("%dk", bps/1000)
}

// parseProgress consumes ffmpeg's -progress key=value stream. The pipe must
// be drained even when no callback is registered, or ffmpeg blocks on a full
// stderr buffer.
func parseProgress(stderrPipe io.ReadCloser, opts Options) {
	defer stderrPipe.Close()

	if opts.OnProgress == nil || opts.DurationSeconds <= 0 {
		_, _ = io.Copy(io.Discard, stderrPipe)
		return
	}

	buf := make([]byte, 1024)
	lineBuf := ""

	for {
		n, err := stderrPipe.Read(buf)

		if n > 0 {
			lineBuf += string(buf[:n])

			for {
				idx := strings.Index(lineBuf, "\n")
				if idx == -1 {
					break
				}
				line := strings.TrimSpace(lineBuf[:idx])
				lineBuf = lineBuf[idx+1:]

				if strings.HasPrefix(line, "out_time=") {
					position, perr := parseFFmpegTime(strings.TrimPrefix(line, "out_time="))
					if perr == nil {
						opts.OnProgress(progressFraction(position, opts.DurationSeconds))
					}
				}
			}
		}
		if err != nil {
			break
		}
	}
}

func progressFraction(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	fraction := position / duration
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

func parseFFmpegTime(timeStr string) (float64, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format")
	}
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	secs, _ := strconv.ParseFloat(parts[2], 64)
	return float64(hours*3600+minutes*60) + secs, nil
}

// removeIfExists deletes a partial artifact; a missing file is not an error.
func removeIfExists(path string) {
	_ = os.Remove(path)
}
