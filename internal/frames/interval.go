package frames

import "math"

// DefaultTargetRate is the sampling rate frames are decimated to.
const DefaultTargetRate = 24

// Interval returns the decimation stride for a source running at fps when
// sampling at target frames per second: floor(fps / target), never below 1.
// Sources at or below the target rate therefore keep every frame.
func Interval(fps float64, target int) int {
	if target <= 0 || fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 1
	}

	n := int(math.Floor(fps / float64(target)))
	if n < 1 {
		return 1
	}
	return n
}

// Selected reports whether the frame at ordinal index i is kept.
func Selected(i, interval int) bool {
	return i%interval == 0
}
