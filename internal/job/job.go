// Package job provides the Job aggregate that records frame split runs.
// It includes the Job entity with its state machine and the repository port
// used for bookkeeping, plus the SplitService use case.
package job

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/framesplit-api/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusRunning indicates the video is being decoded and sampled.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates every selected frame was written.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates decoding or writing failed. Frames written
	// before a write failure are kept on the job.
	StatusFailed Status = "FAILED"
	// StatusPurged indicates the job's frame files were removed.
	StatusPurged Status = "PURGED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusPurged},
	StatusFailed:    {StatusPurged},
	StatusPurged:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// Frame is a frame written by a split run.
type Frame struct {
	// Index is the position of the frame in the decoded stream.
	Index int
	// Path is the storage path of the frame image.
	Path string
	// URL is the published S3 URL, if any.
	URL string
}

// Job represents one split of a video into frames.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// VideoPath is the source video.
	VideoPath string
	// FramesDir is the directory the frames were written to.
	FramesDir string
	// Frames holds the written frames in index order.
	Frames []Frame
	// FrameRate is the reported frame rate of the source.
	FrameRate float64
	// FrameCount is the reported frame count of the source.
	FrameCount int
	// Interval is the decimation stride that was applied.
	Interval int
	// Error contains any error message if the job failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// CompletedAt is when sampling finished.
	CompletedAt time.Time
	// PurgedAt is when the frames were removed.
	PurgedAt time.Time
}

// New creates a new RUNNING Job for videoPath with a generated ID.
func New(videoPath string) *Job {
	return NewWithID(id.Generate(), videoPath)
}

// NewWithID creates a new RUNNING Job with the specified ID.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID, videoPath string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusRunning,
		VideoPath: videoPath,
		Frames:    make([]Frame, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	case StatusPurged:
		j.PurgedAt = j.UpdatedAt
	}

	return nil
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Purge transitions the job to PURGED state and forgets its frames.
func (j *Job) Purge() error {
	if err := j.TransitionTo(StatusPurged); err != nil {
		return err
	}
	j.mu.Lock()
	j.Frames = make([]Frame, 0)
	j.mu.Unlock()
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetSampling records the decoder-reported stream parameters.
func (j *Job) SetSampling(framesDir string, frameRate float64, frameCount, interval int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.FramesDir = framesDir
	j.FrameRate = frameRate
	j.FrameCount = frameCount
	j.Interval = interval
	j.UpdatedAt = time.Now()
}

// SetFrames replaces the recorded frames.
func (j *Job) SetFrames(frames []Frame) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Frames = slices.Clone(frames)
	j.UpdatedAt = time.Now()
}

// FramePaths returns the frame paths in index order.
func (j *Job) FramePaths() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	paths := make([]string, len(j.Frames))
	for i, f := range j.Frames {
		paths[i] = f.Path
	}
	return paths
}

// IsTerminal returns true if sampling has finished.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status != StatusRunning
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	frames := make([]Frame, len(j.Frames))
	copy(frames, j.Frames)

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		VideoPath:   j.VideoPath,
		FramesDir:   j.FramesDir,
		Frames:      frames,
		FrameRate:   j.FrameRate,
		FrameCount:  j.FrameCount,
		Interval:    j.Interval,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
		PurgedAt:    j.PurgedAt,
	}
}
