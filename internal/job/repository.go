package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository records split jobs so their frames can be looked up and purged
// after the request that produced them has returned.
type Repository interface {
	// Save stores a snapshot of job, replacing any earlier one.
	Save(ctx context.Context, job *Job) error

	// FindByID returns the job with the given ID or ErrJobNotFound.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all jobs, oldest first.
	List(ctx context.Context) ([]*Job, error)

	// Delete forgets a job. Its frame files are not touched.
	// Returns ErrJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}
