package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DefaultInspectTimeout bounds stream inspection when the caller's context
// carries no earlier deadline.
const DefaultInspectTimeout = 30 * time.Second

func init() {
	// Compile logs every command line through the standard logger.
	ffmpeg.LogCompiledCommand = false
}

// Compile-time check that FFmpegDecoder implements Decoder.
var _ Decoder = (*FFmpegDecoder)(nil)

// FFmpegDecoder implements Decoder on top of ffmpeg-go. Stream metadata is
// read with ffmpeg.ProbeWithTimeout, which always runs the ffprobe found in
// PATH, and frames come from an ffmpeg process compiled by ffmpeg-go.
type FFmpegDecoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegDecoder creates a new FFmpegDecoder.
// An empty path defaults to "ffmpeg" (found via PATH).
func NewFFmpegDecoder(ffmpegPath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegDecoder{ffmpegPath: ffmpegPath}
}

// Inspect returns frame rate, frame count and dimensions of the first video
// stream in path. ffmpeg-go takes a timeout rather than a context, so ctx
// only contributes its deadline and an up-front cancellation check.
func (d *FFmpegDecoder) Inspect(ctx context.Context, path string) (VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return VideoInfo{}, fmt.Errorf("inspect cancelled: %w", err)
	}

	timeout := DefaultInspectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return VideoInfo{}, fmt.Errorf("inspect cancelled: %w", context.DeadlineExceeded)
		}
	}

	kwargs := ffmpeg.KwArgs{"v": "error"}
	out, err := ffmpeg.ProbeWithTimeout(path, timeout, kwargs)
	if err != nil {
		if ctx.Err() != nil {
			return VideoInfo{}, fmt.Errorf("inspect cancelled: %w", ctx.Err())
		}
		return VideoInfo{}, &FFmpegError{Args: []string{"-v", "error", path}, Err: err}
	}

	return parseStreamInfo([]byte(out))
}

// Open inspects path and starts an ffmpeg process that writes raw RGBA
// frames to a pipe. Any failure before the first frame is read wraps
// ErrDecode.
func (d *FFmpegDecoder) Open(ctx context.Context, path string) (Stream, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	info, err := d.Inspect(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	out := ffmpeg.Input(path, ffmpeg.KwArgs{
		"v":            "error",
		"nostdin":      "",
		"noautorotate": "", // keep the inspected width/height
	}).Output("pipe:", ffmpeg.KwArgs{
		"map":     "0:v:0",
		"vsync":   "passthrough", // one output frame per decoded frame
		"f":       "rawvideo",
		"pix_fmt": "rgba",
	}).SetFfmpegPath(d.ffmpegPath)
	out.Context = ctx

	cmd := out.Compile()

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: ffmpeg stdout: %w", ErrDecode, err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start ffmpeg: %w", ErrDecode, err)
	}

	return &ffmpegStream{
		info:   info,
		cmd:    cmd,
		args:   cmd.Args[1:],
		cancel: cancel,
		stderr: stderr,
		reader: bufio.NewReader(stdout),
	}, nil
}

// ffmpegStream reads fixed-size RGBA frames from an ffmpeg process.
type ffmpegStream struct {
	info   VideoInfo
	cmd    *exec.Cmd
	args   []string
	cancel context.CancelFunc
	stderr *bytes.Buffer
	reader *bufio.Reader

	done    bool
	readErr error

	closeOnce sync.Once
	closeErr  error
}

func (s *ffmpegStream) FrameRate() float64 { return s.info.FrameRate }

func (s *ffmpegStream) FrameCount() int { return s.info.FrameCount }

// Next reads the next full frame. A short read ends the stream.
func (s *ffmpegStream) Next() (image.Image, bool) {
	if s.done {
		return nil, false
	}

	img := image.NewNRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	if _, err := io.ReadFull(s.reader, img.Pix); err != nil {
		s.done = true
		if !errors.Is(err, io.EOF) {
			s.readErr = err
		}
		return nil, false
	}

	return img, true
}

// Close stops ffmpeg if the stream was not drained and reaps the process.
// When the stream ended on its own, a non-zero ffmpeg exit is reported.
func (s *ffmpegStream) Close() error {
	s.closeOnce.Do(func() {
		drained := s.done
		if !drained {
			s.cancel()
		}

		waitErr := s.cmd.Wait()
		s.cancel()

		if !drained {
			return
		}

		switch {
		case waitErr != nil:
			s.closeErr = &FFmpegError{Args: s.args, Stderr: s.stderr.String(), Err: waitErr}
		case s.readErr != nil:
			s.closeErr = fmt.Errorf("read frame: %w", s.readErr)
		}
	})
	return s.closeErr
}

// FFmpegError represents a failed ffmpeg or ffprobe run, including the
// stderr output when it was captured separately.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
