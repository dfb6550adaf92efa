// Package server provides the HTTP server for the frame split API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// UploadResponse is the HTTP response after storing an upload.
type UploadResponse struct {
	// FilePath is where the video was written; pass it to /split_frames.
	FilePath string `json:"file_path"`
	// Size is the number of bytes stored.
	Size int64 `json:"size"`
	// ContentType is the sniffed MIME type of the upload.
	ContentType string `json:"content_type"`
}

// SplitFramesRequest is the HTTP request body for splitting a video.
type SplitFramesRequest struct {
	// FilePath is a path previously returned by /upload.
	FilePath string `json:"file_path" validate:"required"`
}

// SplitFramesResponse is the HTTP response after a successful split.
type SplitFramesResponse struct {
	// JobID identifies the split for later lookup or purge.
	JobID string `json:"job_id"`
	// Frames lists the written frame paths in index order.
	Frames []string `json:"frames"`
	// FrameURLs lists the published frame URLs when S3 publishing is on.
	FrameURLs []string `json:"frame_urls,omitempty"`
	// FrameRate is the reported frame rate of the source.
	FrameRate float64 `json:"frame_rate"`
	// FrameCount is the reported frame count of the source.
	FrameCount int `json:"frame_count"`
	// Interval is the decimation stride that was applied.
	Interval int `json:"interval"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	VideoPath   string     `json:"video_path"`
	FramesDir   string     `json:"frames_dir"`
	Frames      []string   `json:"frames"`
	FrameURLs   []string   `json:"frame_urls,omitempty"`
	FrameRate   float64    `json:"frame_rate"`
	FrameCount  int        `json:"frame_count"`
	Interval    int        `json:"interval"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	PurgedAt    *time.Time `json:"purged_at,omitempty"`
}

// JobListResponse is the HTTP response for listing jobs.
type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
	// JobID is set when the failure belongs to a recorded job.
	JobID string `json:"job_id,omitempty"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
