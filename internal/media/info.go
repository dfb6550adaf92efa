package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoVideoStream is returned when the file holds no video stream.
var ErrNoVideoStream = errors.New("no video stream found")

// VideoInfo holds the metadata of the first video stream in a file.
type VideoInfo struct {
	Width      int
	Height     int
	FrameRate  float64
	FrameCount int
	Duration   float64
}

// streamReport mirrors the subset of the JSON stream report we read.
type streamReport struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseStreamInfo extracts VideoInfo from a JSON stream report.
// Frame rate prefers avg_frame_rate and falls back to r_frame_rate.
// Frame count prefers nb_frames and falls back to round(duration * fps).
func parseStreamInfo(data []byte) (VideoInfo, error) {
	var out streamReport
	if err := json.Unmarshal(data, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse stream report: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}

		info := VideoInfo{
			Width:  s.Width,
			Height: s.Height,
		}

		info.FrameRate = parseRate(s.AvgFrameRate)
		if info.FrameRate == 0 {
			info.FrameRate = parseRate(s.RFrameRate)
		}

		info.Duration = parseFloat(s.Duration)
		if info.Duration == 0 {
			info.Duration = parseFloat(out.Format.Duration)
		}

		if n, err := strconv.Atoi(strings.TrimSpace(s.NbFrames)); err == nil && n > 0 {
			info.FrameCount = n
		} else if info.Duration > 0 && info.FrameRate > 0 {
			info.FrameCount = int(math.Round(info.Duration * info.FrameRate))
		}

		if info.Width <= 0 || info.Height <= 0 {
			return VideoInfo{}, fmt.Errorf("invalid video dimensions %dx%d", info.Width, info.Height)
		}

		return info, nil
	}

	return VideoInfo{}, ErrNoVideoStream
}

// parseRate parses a rational such as "30000/1001" or "25/1".
// Unparseable or undefined rates ("0/0") yield 0.
func parseRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(num)
	}

	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
