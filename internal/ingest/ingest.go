// Package ingest persists uploaded videos to the upload directory.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maauso/framesplit-api/internal/metrics"
	"github.com/maauso/framesplit-api/internal/storage"
)

var (
	// ErrEmptyFilename is returned when the upload carries no filename.
	ErrEmptyFilename = errors.New("empty filename")
	// ErrUnsafeFilename is returned for names that would escape the upload
	// directory.
	ErrUnsafeFilename = errors.New("unsafe filename")
	// ErrIO is returned when the upload cannot be written.
	ErrIO = errors.New("io failure")
)

// sniffLen is how much of the upload is inspected for its content type.
const sniffLen = 3072

// Upload describes a stored upload.
type Upload struct {
	// Filename is the caller-supplied name.
	Filename string
	// Path is where the content was written.
	Path string
	// Size is the number of bytes written.
	Size int64
	// ContentType is the sniffed MIME type. It is informational only.
	ContentType string
}

// Ingestor writes uploaded content verbatim to a fixed directory.
type Ingestor struct {
	store     storage.Storage
	uploadDir string
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor writing to uploadDir.
func NewIngestor(store storage.Storage, uploadDir string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:     store,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// UploadDir returns the directory uploads are written to.
func (in *Ingestor) UploadDir() string {
	return in.uploadDir
}

// Ingest stores content under filename in the upload directory, creating it
// if needed. An existing file with the same name is replaced.
func (in *Ingestor) Ingest(ctx context.Context, filename string, content io.Reader) (*Upload, error) {
	if err := ValidateFilename(filename); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	br := bufio.NewReaderSize(content, sniffLen)
	// A short upload yields io.EOF with whatever bytes exist. Any other error
	// is reported here: Peek hands the reader's error out only once.
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		in.logger.Error("failed to read upload",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	contentType := mimetype.Detect(head).String()

	cr := &countingReader{r: br}
	path, err := in.store.Save(ctx, in.uploadDir, filename, cr)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		in.logger.Error("failed to store upload",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	metrics.UploadBytesTotal.Add(float64(cr.n))

	in.logger.Info("upload stored",
		slog.String("path", path),
		slog.Int64("size", cr.n),
		slog.String("content_type", contentType),
	)

	return &Upload{
		Filename:    filename,
		Path:        path,
		Size:        cr.n,
		ContentType: contentType,
	}, nil
}

// ValidateFilename rejects empty names and names that are not a single path
// element.
func ValidateFilename(name string) error {
	if name == "" {
		return ErrEmptyFilename
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrUnsafeFilename, name)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
