// Package media provides the video decoding capability used by the frame
// sampler. Decoding is delegated to ffmpeg behind a narrow interface
// so tests can substitute a fake decoder.
package media

import (
	"context"
	"errors"
	"image"
)

// ErrDecode is returned when a video cannot be opened or inspected.
var ErrDecode = errors.New("decode failure")

// Decoder opens videos for sequential frame access.
type Decoder interface {
	// Open inspects the video at path and starts decoding it.
	// Returns an error wrapping ErrDecode if the file cannot be opened
	// or carries no video stream.
	Open(ctx context.Context, path string) (Stream, error)
}

// Stream is a stateful, non-reentrant cursor over the decoded frames of
// one video. It is not safe for concurrent use.
type Stream interface {
	// FrameRate returns the nominal frame rate reported by the container.
	FrameRate() float64

	// FrameCount returns the reported total number of frames. It may be
	// inaccurate for malformed containers.
	FrameCount() int

	// Next returns the next decoded frame in order. It returns false once
	// no further frame is available, which is the normal end of stream.
	Next() (image.Image, bool)

	// Close stops decoding and releases resources. The returned error
	// describes an abnormal decoder exit, if any.
	Close() error
}
