package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/euacreations/streamvault/internal/models"
)

// ProbeResult carries the technical facts of a media file. All bitrates are
// normalized to bits per second.
type ProbeResult struct {
	DurationSeconds float64
	FileSizeBytes   int64
	BitrateBPS      int64
	Container       string
	VideoCodec      string
	AudioCodec      string
	Resolution      string // "WxH", empty when there is no video stream
	FrameRate       string
}

// HasContainer reports whether the probed container list (ffprobe reports a
// comma separated set, e.g. "mov,mp4,m4a,3gp,3g2,mj2") includes name.
func (r *ProbeResult) HasContainer(name string) bool {
	for _, part := range strings.Split(r.Container, ",") {
		if strings.TrimSpace(part) == name {
			return true
		}
	}
	return false
}

type Prober struct {
	Timeout time.Duration
}

func NewProber(timeout time.Duration) *Prober {
	return &Prober{Timeout: timeout}
}

// Probe runs ffprobe against path. It never mutates the file. Unreadable
// input or the absence of any decodable stream yields a ProbeError.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, &models.ProbeError{Path: path, Err: err}
	}

	result, err := parseProbeOutput(out)
	if err != nil {
		return nil, &models.ProbeError{Path: path, Err: err}
	}
	return result, nil
}

type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no decodable streams")
	}

	result := &ProbeResult{Container: out.Format.FormatName}
	result.DurationSeconds, _ = strconv.ParseFloat(out.Format.Duration, 64)
	result.FileSizeBytes, _ = strconv.ParseInt(out.Format.Size, 10, 64)
	result.BitrateBPS, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if result.VideoCodec == "" {
				result.VideoCodec = s.CodecName
				result.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
				result.FrameRate = s.RFrameRate
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
			}
		}
	}

	return result, nil
}

func probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}
