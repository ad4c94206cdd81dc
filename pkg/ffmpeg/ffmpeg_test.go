package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProbeJSON = `{
	"streams": [
		{
			"codec_type": "video",
			"codec_name": "h264",
			"width": 1920,
			"height": 1080,
			"r_frame_rate": "30/1"
		},
		{
			"codec_type": "audio",
			"codec_name": "aac"
		}
	],
	"format": {
		"format_name": "mov,mp4,m4a,3gp,3g2,mj2",
		"duration": "632.500000",
		"size": "118640640",
		"bit_rate": "1500000"
	}
}`

func TestParseProbeOutput(t *testing.T) {
	result, err := parseProbeOutput([]byte(sampleProbeJSON))
	require.NoError(t, err)

	assert.Equal(t, 632.5, result.DurationSeconds)
	assert.Equal(t, int64(118640640), result.FileSizeBytes)
	assert.Equal(t, int64(1500000), result.BitrateBPS)
	assert.Equal(t, "h264", result.VideoCodec)
	assert.Equal(t, "aac", result.AudioCodec)
	assert.Equal(t, "1920x1080", result.Resolution)
	assert.Equal(t, "30/1", result.FrameRate)
	assert.True(t, result.HasContainer("mp4"))
	assert.False(t, result.HasContainer("matroska"))
}

func TestParseProbeOutputAudioOnly(t *testing.T) {
	audioOnly := `{
		"streams": [{"codec_type": "audio", "codec_name": "mp3"}],
		"format": {"format_name": "mp3", "duration": "180.0", "size": "100", "bit_rate": "128000"}
	}`

	result, err := parseProbeOutput([]byte(audioOnly))
	require.NoError(t, err)
	assert.Empty(t, result.Resolution)
	assert.Empty(t, result.VideoCodec)
	assert.Equal(t, "mp3", result.AudioCodec)
}

func TestParseProbeOutputNoStreams(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"streams": [], "format": {"format_name": "mp4"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no decodable streams")
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	require.Error(t, err)
}

func TestBuildTranscodeArgs(t *testing.T) {
	args := buildTranscodeArgs("/tmp/in.mkv", "/srv/media/out.mp4", Options{
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		VideoBitrateBPS: 2_000_000,
		AudioBitrateBPS: 192_000,
		Resolution:      "1920x1080",
		Container:       "mp4",
		Preset:          "fast",
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i /tmp/in.mkv")
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-b:v 2000k")
	assert.Contains(t, joined, "-maxrate 2000k")
	assert.Contains(t, joined, "-bufsize 4000k")
	assert.Contains(t, joined, "-s 1920x1080")
	assert.Contains(t, joined, "-preset fast")
	assert.Contains(t, joined, "-c:a aac")
	assert.Contains(t, joined, "-b:a 192k")
	assert.Contains(t, joined, "-f mp4")
	assert.Contains(t, joined, "-progress pipe:2")
	assert.Equal(t, "/srv/media/out.mp4", args[len(args)-1])
}

func TestBuildTranscodeArgsOmitsOptionalFlags(t *testing.T) {
	args := buildTranscodeArgs("in", "out", Options{VideoCodec: "libx264", AudioCodec: "aac"})

	joined := strings.Join(args, " ")
	assert.NotContains(t, joined, "-b:v")
	assert.NotContains(t, joined, "-s ")
	assert.NotContains(t, joined, "-preset")
}

func TestParseFFmpegTime(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"00:00:10.500000", 10.5, true},
		{"01:02:03.000000", 3723, true},
		{"00:00:00.000000", 0, true},
		{"garbage", 0, false},
		{"10.5", 0, false},
	}

	for _, tt := range tests {
		got, err := parseFFmpegTime(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}

func TestProgressFraction(t *testing.T) {
	assert.Equal(t, 0.5, progressFraction(50, 100))
	assert.Equal(t, 1.0, progressFraction(150, 100))
	assert.Equal(t, 0.0, progressFraction(-1, 100))
	assert.Equal(t, 0.0, progressFraction(10, 0))
}

func TestParseProgressReportsFractions(t *testing.T) {
	var got []float64
	opts := Options{
		DurationSeconds: 100,
		OnProgress:      func(f float64) { got = append(got, f) },
	}

	stream := "frame=1\nout_time=00:00:25.000000\nspeed=2x\nout_time=00:01:40.000000\n"
	parseProgress(nopReadCloser{strings.NewReader(stream)}, opts)

	require.Len(t, got, 2)
	assert.Equal(t, 0.25, got[0])
	assert.Equal(t, 1.0, got[1])
}

func TestEncoderFor(t *testing.T) {
	assert.Equal(t, "libx264", EncoderFor("h264"))
	assert.Equal(t, "libx265", EncoderFor("hevc"))
	assert.Equal(t, "vp9", EncoderFor("vp9"))
}

type nopReadCloser struct{ *strings.Reader }

func (nopReadCloser) Close() error { return nil }
