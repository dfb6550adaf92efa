package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/framesplit-api/internal/frames"
	"github.com/maauso/framesplit-api/internal/ingest"
	"github.com/maauso/framesplit-api/internal/job"
	"github.com/maauso/framesplit-api/internal/media"
)

// uploadField is the multipart field carrying the video.
const uploadField = "file"

// DefaultMaxUploadBytes caps upload request bodies when no limit is set.
const DefaultMaxUploadBytes int64 = 1 << 30

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *job.SplitService
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes limits the size of upload request bodies.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.SplitService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Upload handles POST /upload requests carrying a multipart "file" part.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), "UPLOAD_TOO_LARGE")
		case errors.Is(err, http.ErrMissingFile) && r.MultipartForm != nil && len(r.MultipartForm.Value[uploadField]) > 0:
			// A part without a filename is parsed as a plain form value.
			writeError(w, http.StatusBadRequest, "No selected file", "NO_SELECTED_FILE")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, "No file part", "NO_FILE_PART")
		default:
			h.logger.Warn("failed to parse multipart body",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_MULTIPART")
		}
		return
	}
	defer file.Close()

	up, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrEmptyFilename):
			writeError(w, http.StatusBadRequest, "No selected file", "NO_SELECTED_FILE")
		case errors.Is(err, ingest.ErrUnsafeFilename):
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		default:
			h.logger.Error("failed to store upload",
				slog.String("filename", header.Filename),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to store upload", "IO_FAILURE")
		}
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		FilePath:    up.Path,
		Size:        up.Size,
		ContentType: up.ContentType,
	})
}

// SplitFrames handles POST /split_frames requests.
func (h *Handlers) SplitFrames(w http.ResponseWriter, r *http.Request) {
	var req SplitFramesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	splitJob, err := h.service.Split(r.Context(), req.FilePath)
	if err != nil {
		resp := ErrorResponse{Error: err.Error()}
		if splitJob != nil {
			resp.JobID = splitJob.ID
		}

		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, media.ErrDecode):
			status = http.StatusUnprocessableEntity
			resp.Code = "DECODE_FAILURE"
		case errors.Is(err, frames.ErrWrite):
			resp.Code = "WRITE_FAILURE"
		default:
			resp.Code = "SPLIT_FAILED"
		}
		writeJSON(w, status, resp)
		return
	}

	paths, urls := framesOf(splitJob)
	writeJSON(w, http.StatusOK, SplitFramesResponse{
		JobID:      splitJob.ID,
		Frames:     paths,
		FrameURLs:  urls,
		FrameRate:  splitJob.FrameRate,
		FrameCount: splitJob.FrameCount,
		Interval:   splitJob.Interval,
	})
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_FETCH_FAILED")
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(foundJob))
}

// PurgeJobFrames handles DELETE /jobs/{id}/frames requests.
func (h *Handlers) PurgeJobFrames(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	purged, err := h.service.PurgeFrames(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		case errors.Is(err, job.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "job frames cannot be purged in its current state", "JOB_NOT_PURGEABLE")
		default:
			h.logger.Error("failed to purge frames",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to purge frames", "PURGE_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(purged))
}

// DeleteJob handles DELETE /jobs/{id} requests. Only PURGED jobs can be
// deleted.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	if err := h.service.DeleteJob(r.Context(), jobID); err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
		case errors.Is(err, job.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "job frames must be purged before the job is deleted", "JOB_NOT_DELETABLE")
		default:
			h.logger.Error("failed to delete job",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to delete job", "DELETE_FAILED")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toJobResponse(j *job.Job) JobResponse {
	paths, urls := framesOf(j)
	resp := JobResponse{
		ID:         j.ID,
		Status:     string(j.Status),
		VideoPath:  j.VideoPath,
		FramesDir:  j.FramesDir,
		Frames:     paths,
		FrameURLs:  urls,
		FrameRate:  j.FrameRate,
		FrameCount: j.FrameCount,
		Interval:   j.Interval,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt,
	}
	if !j.CompletedAt.IsZero() {
		t := j.CompletedAt
		resp.CompletedAt = &t
	}
	if !j.PurgedAt.IsZero() {
		t := j.PurgedAt
		resp.PurgedAt = &t
	}
	return resp
}

// framesOf returns the frame paths and, when any frame was published, the
// frame URLs of j.
func framesOf(j *job.Job) ([]string, []string) {
	paths := make([]string, len(j.Frames))
	var urls []string
	for i, f := range j.Frames {
		paths[i] = f.Path
		if f.URL != "" {
			urls = append(urls, f.URL)
		}
	}
	return paths, urls
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
