package frames

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned for an unknown frame image format.
var ErrUnsupportedFormat = errors.New("unsupported frame format")

// Encoder turns a decoded frame into a still image file.
type Encoder interface {
	// Encode writes img to w.
	Encode(w io.Writer, img image.Image) error
	// Ext returns the file extension without the leading dot.
	Ext() string
}

// EncoderOption configures an encoder.
type EncoderOption func(*encoderOptions)

type encoderOptions struct {
	quality  int
	maxWidth int
}

// WithQuality sets the jpeg/webp quality (1-100).
func WithQuality(q int) EncoderOption {
	return func(o *encoderOptions) {
		if q >= 1 && q <= 100 {
			o.quality = q
		}
	}
}

// WithMaxWidth downscales frames wider than w, preserving aspect ratio.
// Zero disables resizing.
func WithMaxWidth(w int) EncoderOption {
	return func(o *encoderOptions) {
		if w >= 0 {
			o.maxWidth = w
		}
	}
}

// NewEncoder returns an encoder for format: "jpg", "jpeg", "png" or "webp".
func NewEncoder(format string, opts ...EncoderOption) (Encoder, error) {
	o := encoderOptions{quality: 90}
	for _, opt := range opts {
		opt(&o)
	}

	switch ext := strings.ToLower(strings.TrimPrefix(format, ".")); ext {
	case "jpg", "jpeg", "png":
		f, err := imaging.FormatFromExtension(ext)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
		}
		return &imagingEncoder{format: f, ext: ext, opts: o}, nil
	case "webp":
		return &webpEncoder{opts: o}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

type imagingEncoder struct {
	format imaging.Format
	ext    string
	opts   encoderOptions
}

func (e *imagingEncoder) Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, e.opts.fit(img), e.format, imaging.JPEGQuality(e.opts.quality))
}

func (e *imagingEncoder) Ext() string { return e.ext }

type webpEncoder struct {
	opts encoderOptions
}

func (e *webpEncoder) Encode(w io.Writer, img image.Image) error {
	return webp.Encode(w, e.opts.fit(img), &webp.Options{
		Quality: float32(e.opts.quality),
		Exact:   true,
	})
}

func (e *webpEncoder) Ext() string { return "webp" }

func (o encoderOptions) fit(img image.Image) image.Image {
	if o.maxWidth == 0 || img.Bounds().Dx() <= o.maxWidth {
		return img
	}
	return imaging.Resize(img, o.maxWidth, 0, imaging.Lanczos)
}
