package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"30/1", 30},
		{"48/1", 48},
		{"30000/1001", 30000.0 / 1001.0},
		{"12", 12},
		{"0/0", 0},
		{"25/0", 0},
		{"", 0},
		{"N/A", 0},
		{"-24/1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.expected, parseRate(tt.input), 1e-9)
		})
	}
}

func TestParseStreamInfo(t *testing.T) {
	t.Run("reported frame count", func(t *testing.T) {
		data := []byte(`{
			"streams": [{
				"codec_type": "video", "width": 1920, "height": 1080,
				"avg_frame_rate": "30/1", "r_frame_rate": "30/1",
				"nb_frames": "100", "duration": "3.333333"
			}],
			"format": {"duration": "3.34"}
		}`)

		info, err := parseStreamInfo(data)
		require.NoError(t, err)
		assert.Equal(t, 1920, info.Width)
		assert.Equal(t, 1080, info.Height)
		assert.InDelta(t, 30.0, info.FrameRate, 1e-9)
		assert.Equal(t, 100, info.FrameCount)
		assert.InDelta(t, 3.333333, info.Duration, 1e-9)
	})

	t.Run("frame count estimated from duration", func(t *testing.T) {
		data := []byte(`{
			"streams": [{
				"codec_type": "video", "width": 640, "height": 360,
				"avg_frame_rate": "0/0", "r_frame_rate": "48/1",
				"nb_frames": "N/A"
			}],
			"format": {"duration": "2.5"}
		}`)

		info, err := parseStreamInfo(data)
		require.NoError(t, err)
		assert.InDelta(t, 48.0, info.FrameRate, 1e-9)
		assert.Equal(t, 120, info.FrameCount)
	})

	t.Run("unknown duration yields zero frames", func(t *testing.T) {
		data := []byte(`{"streams": [{"codec_type": "video", "width": 2, "height": 2, "avg_frame_rate": "24/1"}]}`)

		info, err := parseStreamInfo(data)
		require.NoError(t, err)
		assert.Equal(t, 0, info.FrameCount)
	})

	t.Run("audio only", func(t *testing.T) {
		data := []byte(`{"streams": [{"codec_type": "audio"}], "format": {"duration": "10"}}`)

		_, err := parseStreamInfo(data)
		assert.ErrorIs(t, err, ErrNoVideoStream)
	})

	t.Run("no streams", func(t *testing.T) {
		_, err := parseStreamInfo([]byte(`{"streams": []}`))
		assert.ErrorIs(t, err, ErrNoVideoStream)
	})

	t.Run("zero dimensions", func(t *testing.T) {
		_, err := parseStreamInfo([]byte(`{"streams": [{"codec_type": "video", "avg_frame_rate": "24/1"}]}`))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := parseStreamInfo([]byte(`not json`))
		assert.Error(t, err)
	})
}
