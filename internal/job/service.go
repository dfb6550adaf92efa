package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maauso/framesplit-api/internal/frames"
	"github.com/maauso/framesplit-api/internal/ingest"
	"github.com/maauso/framesplit-api/internal/media"
	"github.com/maauso/framesplit-api/internal/metrics"
	"github.com/maauso/framesplit-api/internal/storage"
)

// SplitService orchestrates uploads and frame splits, recording every split
// as a Job so its frames can be listed and purged later.
//
// With per-job frames enabled each split writes into its own directory named
// after the job ID, so concurrent splits of the same video do not collide.
// Without it all frames share one directory and concurrent splits of the
// same video are not supported; callers must serialize them.
type SplitService struct {
	repo     Repository
	ingestor *ingest.Ingestor
	sampler  *frames.Sampler
	store    storage.Storage
	logger   *slog.Logger
	perJob   bool
}

// ServiceOption configures a SplitService.
type ServiceOption func(*SplitService)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *SplitService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSharedFramesDir writes every split into the frames directory itself
// instead of a per-job subdirectory.
func WithSharedFramesDir() ServiceOption {
	return func(s *SplitService) {
		s.perJob = false
	}
}

// NewSplitService creates a new SplitService.
func NewSplitService(repo Repository, ingestor *ingest.Ingestor, sampler *frames.Sampler, store storage.Storage, opts ...ServiceOption) *SplitService {
	s := &SplitService{
		repo:     repo,
		ingestor: ingestor,
		sampler:  sampler,
		store:    store,
		logger:   slog.Default(),
		perJob:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores an uploaded video and returns where it was written.
func (s *SplitService) Upload(ctx context.Context, filename string, content io.Reader) (*ingest.Upload, error) {
	return s.ingestor.Ingest(ctx, filename, content)
}

// Split samples the video at videoPath and records the run as a Job.
//
// The returned Job is non-nil whenever a job was created, including on
// failure, so callers can report its ID and purge partial output. Errors
// wrap media.ErrDecode or frames.ErrWrite.
func (s *SplitService) Split(ctx context.Context, videoPath string) (*Job, error) {
	job := New(videoPath)

	namespace := ""
	if s.perJob {
		namespace = job.ID
	}
	job.FramesDir = s.sampler.OutputDir(namespace)

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("splitting video",
		slog.String("job_id", job.ID),
		slog.String("video_path", videoPath),
		slog.String("frames_dir", job.FramesDir),
	)

	start := time.Now()
	res, err := s.sampler.Sample(ctx, videoPath, namespace)
	metrics.SplitDuration.Observe(time.Since(start).Seconds())

	if res != nil {
		job.SetSampling(job.FramesDir, res.FrameRate, res.FrameCount, res.Interval)
		job.SetFrames(toJobFrames(res.Frames))
	}

	if err != nil {
		metrics.SplitsTotal.WithLabelValues(failureLabel(err)).Inc()
		_ = job.Fail(err.Error())
		s.logger.Error("split failed",
			slog.String("job_id", job.ID),
			slog.String("video_path", videoPath),
			slog.Int("frames_written", len(job.Frames)),
			slog.String("error", err.Error()),
		)
		if saveErr := s.repo.Save(ctx, job); saveErr != nil {
			s.logger.Error("failed to save job",
				slog.String("job_id", job.ID),
				slog.String("error", saveErr.Error()),
			)
		}
		return job.Clone(), err
	}

	_ = job.Complete()
	metrics.SplitsTotal.WithLabelValues("completed").Inc()

	s.logger.Info("split completed",
		slog.String("job_id", job.ID),
		slog.Float64("fps", res.FrameRate),
		slog.Int("interval", res.Interval),
		slog.Int("frames_written", len(res.Frames)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return job.Clone(), nil
}

// GetJob retrieves a job by ID.
func (s *SplitService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all recorded jobs, oldest first.
func (s *SplitService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// PurgeFrames removes the frame files written by a finished job and marks
// it PURGED. The job's directory is removed as well when it is private to
// the job. Files that another job which is not yet PURGED still lists are
// kept, since in the shared layout later splits overwrite earlier frames of
// the same name. Purging a RUNNING or already PURGED job returns
// ErrInvalidTransition and removes nothing.
func (s *SplitService) PurgeFrames(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !job.IsTerminal() || job.GetStatus() == StatusPurged {
		return nil, ErrInvalidTransition
	}

	paths, err := s.unsharedPaths(ctx, job)
	if err != nil {
		return nil, err
	}
	if err := s.store.Cleanup(ctx, paths); err != nil {
		return nil, fmt.Errorf("remove frames: %w", err)
	}
	if s.perJob && job.FramesDir != s.sampler.OutputDir("") {
		if err := s.store.RemoveDir(ctx, job.FramesDir); err != nil {
			return nil, fmt.Errorf("remove frames directory: %w", err)
		}
	}

	kept := len(job.FramePaths()) - len(paths)
	if err := job.Purge(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("frames purged",
		slog.String("job_id", job.ID),
		slog.Int("frames_removed", len(paths)),
		slog.Int("frames_kept", kept),
	)

	return job, nil
}

// DeleteJob forgets a PURGED job. Jobs that still own frames must be purged
// first; deleting them returns ErrInvalidTransition.
func (s *SplitService) DeleteJob(ctx context.Context, id string) error {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if job.GetStatus() != StatusPurged {
		return ErrInvalidTransition
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("job deleted", slog.String("job_id", id))
	return nil
}

// unsharedPaths returns the frame paths of job that no other live job lists.
func (s *SplitService) unsharedPaths(ctx context.Context, job *Job) ([]string, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	inUse := make(map[string]struct{})
	for _, other := range jobs {
		if other.ID == job.ID || other.Status == StatusPurged {
			continue
		}
		for _, f := range other.Frames {
			inUse[f.Path] = struct{}{}
		}
	}

	paths := make([]string, 0, len(job.Frames))
	for _, p := range job.FramePaths() {
		if _, ok := inUse[p]; !ok {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func toJobFrames(in []frames.Frame) []Frame {
	out := make([]Frame, len(in))
	for i, f := range in {
		out[i] = Frame{Index: f.Index, Path: f.Path, URL: f.URL}
	}
	return out
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, media.ErrDecode):
		return "decode_failed"
	case errors.Is(err, frames.ErrWrite):
		return "write_failed"
	default:
		return "failed"
	}
}
