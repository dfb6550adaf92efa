// Package frames implements frame sampling: a single sequential decode pass
// over a video that keeps every interval-th frame and writes it to storage
// as a still image.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/maauso/framesplit-api/internal/media"
	"github.com/maauso/framesplit-api/internal/metrics"
	"github.com/maauso/framesplit-api/internal/storage"
)

// ErrWrite is returned when a selected frame cannot be encoded, stored or
// published. Frames written before the failure stay on storage.
var ErrWrite = errors.New("write failure")

// Frame is one sampled frame.
type Frame struct {
	// Index is the zero-based position of the frame in the decoded stream.
	Index int
	// Path is where the encoded image was written.
	Path string
	// URL is the published object URL when S3 publishing is enabled.
	URL string
}

// Result describes one sampling pass.
type Result struct {
	// Frames holds the written frames in increasing index order.
	Frames []Frame
	// FrameRate is the nominal rate reported by the decoder.
	FrameRate float64
	// FrameCount is the frame count reported by the decoder.
	FrameCount int
	// Interval is the decimation stride that was applied.
	Interval int
	// Decoded is the number of frames actually read from the stream.
	Decoded int
}

// Paths returns the storage paths of the written frames, in index order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Frames))
	for i, f := range r.Frames {
		paths[i] = f.Path
	}
	return paths
}

// Sampler decodes a video once and writes the frames selected by the
// decimation interval. A Sampler holds no per-call state; concurrent calls
// on different videos or namespaces are independent. Two concurrent calls
// writing the same namespace overwrite each other's files and must be
// serialized by the caller.
type Sampler struct {
	decoder    media.Decoder
	store      storage.Storage
	encoder    Encoder
	logger     *slog.Logger
	framesDir  string
	targetRate int
	publish    bool
	s3Prefix   string
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithTargetRate sets the sampling rate in frames per second.
func WithTargetRate(fps int) Option {
	return func(s *Sampler) {
		if fps > 0 {
			s.targetRate = fps
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithS3Publishing uploads every written frame to S3 under prefix.
func WithS3Publishing(prefix string) Option {
	return func(s *Sampler) {
		s.publish = true
		s.s3Prefix = prefix
	}
}

// NewSampler creates a Sampler writing frames below framesDir.
func NewSampler(decoder media.Decoder, store storage.Storage, encoder Encoder, framesDir string, opts ...Option) *Sampler {
	s := &Sampler{
		decoder:    decoder,
		store:      store,
		encoder:    encoder,
		logger:     slog.Default(),
		framesDir:  framesDir,
		targetRate: DefaultTargetRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OutputDir returns the directory frames for namespace are written to.
// An empty namespace writes directly into the frames directory.
func (s *Sampler) OutputDir(namespace string) string {
	if namespace == "" {
		return s.framesDir
	}
	return filepath.Join(s.framesDir, namespace)
}

// Sample walks the decoded frames of videoPath from index 0 up to the
// reported frame count, stopping early without error when the decoder runs
// out of frames. Every frame whose index is a multiple of the interval is
// encoded and written as frame_<index>.<ext>.
//
// An unopenable video yields an error wrapping media.ErrDecode. A failure
// while writing yields ErrWrite together with the partial result.
func (s *Sampler) Sample(ctx context.Context, videoPath, namespace string) (*Result, error) {
	stream, err := s.decoder.Open(ctx, videoPath)
	if err != nil {
		if !errors.Is(err, media.ErrDecode) {
			err = fmt.Errorf("%w: %w", media.ErrDecode, err)
		}
		return nil, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			s.logger.Warn("decoder exited abnormally",
				slog.String("video_path", videoPath),
				slog.String("error", cerr.Error()),
			)
		}
	}()

	count := max(stream.FrameCount(), 0)
	res := &Result{
		FrameRate:  stream.FrameRate(),
		FrameCount: count,
		Interval:   Interval(stream.FrameRate(), s.targetRate),
	}
	res.Frames = make([]Frame, 0, (count+res.Interval-1)/res.Interval)

	dir := s.OutputDir(namespace)

	s.logger.Debug("sampling video",
		slog.String("video_path", videoPath),
		slog.Float64("fps", res.FrameRate),
		slog.Int("frame_count", count),
		slog.Int("interval", res.Interval),
		slog.String("output_dir", dir),
	)

	var buf bytes.Buffer
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("sampling cancelled: %w", err)
		}

		img, ok := stream.Next()
		if !ok {
			s.logger.Debug("stream ended before reported frame count",
				slog.String("video_path", videoPath),
				slog.Int("decoded", res.Decoded),
				slog.Int("frame_count", count),
			)
			break
		}
		res.Decoded++

		if !Selected(i, res.Interval) {
			continue
		}

		frame, err := s.writeFrame(ctx, &buf, dir, namespace, i, img)
		if frame.Path != "" {
			res.Frames = append(res.Frames, frame)
			metrics.FramesWrittenTotal.Inc()
		}
		if err != nil {
			return res, err
		}
	}

	return res, nil
}

// writeFrame encodes img into buf and stores it, publishing to S3 if enabled.
// A frame that was stored but not published is returned along with the error.
func (s *Sampler) writeFrame(ctx context.Context, buf *bytes.Buffer, dir, namespace string, index int, img image.Image) (Frame, error) {
	buf.Reset()
	if err := s.encoder.Encode(buf, img); err != nil {
		return Frame{}, fmt.Errorf("%w: encode frame %d: %w", ErrWrite, index, err)
	}

	name := fmt.Sprintf("frame_%d.%s", index, s.encoder.Ext())
	p, err := s.store.Save(ctx, dir, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: save frame %d: %w", ErrWrite, index, err)
	}

	frame := Frame{Index: index, Path: p}

	if s.publish {
		key := path.Join(s.s3Prefix, namespace, name)
		url, err := s.store.UploadToS3(ctx, key, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return frame, fmt.Errorf("%w: publish frame %d: %w", ErrWrite, index, err)
		}
		frame.URL = url
	}

	return frame, nil
}
